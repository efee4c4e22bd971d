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


package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/in-toto/go-leakscan/ensemble"
	"github.com/in-toto/go-leakscan/report"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
)

type modelInfo struct {
	Path         string         `json:"path"`
	Trees        int            `json:"trees"`
	MaxDepth     int            `json:"maxDepth"`
	BaseScore    float64        `json:"baseScore"`
	LearningRate float64        `json:"learningRate"`
	FeatureNames []string       `json:"featureNames"`
	SplitCounts  map[string]int `json:"splitCounts"`
}

func newInspectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <model>",
		Short: "Load a model, check its feature schema and describe it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInspect(cmd, args[0])
		},
	}

	cmd.Flags().StringP("format", "f", string(report.FormatText), "Output format (text, json)")
	return cmd
}

func (a *app) runInspect(cmd *cobra.Command, path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("invalid model path: %w", err)
	}

	model, err := ensemble.LoadFile(path)
	if err != nil {
		return err
	}

	info := modelInfo{
		Path:         path,
		Trees:        model.NumTrees(),
		MaxDepth:     model.MaxDepth(),
		BaseScore:    model.BaseScore(),
		LearningRate: model.LearningRate(),
		FeatureNames: model.FeatureNames(),
		SplitCounts:  model.SplitCounts(),
	}

	format, err := report.ParseFormat(a.v.GetString("format"))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case report.FormatText:
		var b strings.Builder
		fmt.Fprintf(&b, "Model: %s\n", info.Path)
		fmt.Fprintf(&b, "Trees: %d\nMax depth: %d\n", info.Trees, info.MaxDepth)
		fmt.Fprintf(&b, "Base score: %.6f\nLearning rate: %g\n", info.BaseScore, info.LearningRate)
		b.WriteString("Features:\n")
		names := append([]string(nil), info.FeatureNames...)
		sort.SliceStable(names, func(i, j int) bool {
			return info.SplitCounts[names[i]] > info.SplitCounts[names[j]]
		})
		for _, name := range names {
			fmt.Fprintf(&b, "  %-14s %d splits\n", name, info.SplitCounts[name])
		}

		_, err := fmt.Fprint(out, b.String())
		return err
	default:
		return fmt.Errorf("format %q is not supported by inspect", format)
	}
}
