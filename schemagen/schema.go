// Copyright 2026 The Witness Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package schemagen reflects JSON schemas for the documents leakscan reads
// and writes.
package schemagen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/in-toto/go-leakscan/detector"
	"github.com/in-toto/go-leakscan/ensemble"
	"github.com/in-toto/go-leakscan/log"
	"github.com/in-toto/go-leakscan/scanner"
	"github.com/invopop/jsonschema"
)

const schemaIDPrefix = "https://github.com/in-toto/go-leakscan/schemas/"

type document struct {
	title       string
	description string
	value       any
}

var documents = map[string]document{
	"model": {
		title:       "leakscan model",
		description: "Gradient boosted tree ensemble used to score string literals",
		value:       &ensemble.Document{},
	},
	"detection": {
		title:       "leakscan detection",
		description: "A string literal classified as a likely hard-coded secret",
		value:       &detector.Detection{},
	},
	"summary": {
		title:       "leakscan summary",
		description: "Totals reported when a scan finishes",
		value:       &scanner.Summary{},
	},
	"allowlist": {
		title:       "leakscan allowlist",
		description: "Paths and literals excluded from detection",
		value:       &detector.AllowList{},
	},
}

// Names returns the name of every generated schema in sorted order.
func Names() []string {
	names := make([]string, 0, len(documents))
	for name := range documents {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// Schema reflects the schema registered under name.
func Schema(name string) (*jsonschema.Schema, error) {
	doc, ok := documents[name]
	if !ok {
		return nil, fmt.Errorf("no schema named %q", name)
	}

	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}

	schema := reflector.Reflect(doc.value)
	schema.ID = jsonschema.ID(schemaIDPrefix + name + ".json")
	schema.Title = doc.title
	schema.Description = doc.description
	return schema, nil
}

// Generate writes <name>.json for every schema into dir, creating it if
// needed.
func Generate(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating schema directory: %w", err)
	}

	for _, name := range Names() {
		schema, err := Schema(name)
		if err != nil {
			return err
		}

		raw, err := schema.MarshalJSON()
		if err != nil {
			return fmt.Errorf("error marshalling schema %s: %w", name, err)
		}

		var indented bytes.Buffer
		if err := json.Indent(&indented, raw, "", "  "); err != nil {
			return fmt.Errorf("error indenting schema %s: %w", name, err)
		}
		indented.WriteByte('\n')

		path := filepath.Join(dir, name+".json")
		log.Infof("Writing schema for %s to %s", name, path)
		if err := os.WriteFile(path, indented.Bytes(), 0o644); err != nil {
			return fmt.Errorf("error writing schema %s: %w", name, err)
		}
	}

	return nil
}
