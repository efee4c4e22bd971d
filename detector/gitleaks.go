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

package detector

import (
	"fmt"
	"os"
	"strings"

	"github.com/in-toto/go-leakscan/log"
	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
)

// newGitleaksDetector builds the rule engine used to corroborate model
// detections, from configPath when set and from the gitleaks defaults otherwise.
func newGitleaksDetector(configPath string) (*detect.Detector, error) {
	if configPath != "" {
		return loadCustomGitleaksConfig(configPath)
	}

	log.Debugf("(detector) using default gitleaks configuration")
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("error creating default gitleaks detector: %w", err)
	}

	return d, nil
}

func loadCustomGitleaksConfig(configPath string) (*detect.Detector, error) {
	log.Debugf("(detector) loading gitleaks configuration from: %s", configPath)

	// a private viper instance keeps the CLI's global configuration untouched
	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("gitleaks config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("error reading gitleaks config file %s: %w", configPath, err)
	}

	var viperConfig config.ViperConfig
	if err := v.Unmarshal(&viperConfig); err != nil {
		return nil, fmt.Errorf("error unmarshaling gitleaks config from %s: %w", configPath, err)
	}

	cfg, err := viperConfig.Translate()
	if err != nil {
		return nil, fmt.Errorf("error translating gitleaks config from %s: %w", configPath, err)
	}

	if len(cfg.Rules) == 0 {
		log.Warnf("(detector) gitleaks config from %s contains no rules", configPath)
	}

	log.Infof("(detector) using custom gitleaks config from %s", configPath)
	return detect.NewDetector(cfg), nil
}

// corroborate sets RuleID on every detection whose literal overlaps a secret
// gitleaks finds on the same line.
func (d *Detector) corroborate(line string, detections []Detection) {
	if d.gitleaks == nil || len(detections) == 0 {
		return
	}

	findings := d.gitleaks.DetectBytes([]byte(line))
	if len(findings) == 0 {
		return
	}

	for i := range detections {
		for _, f := range findings {
			if f.Secret == "" {
				continue
			}

			if strings.Contains(detections[i].Text, f.Secret) || strings.Contains(f.Secret, detections[i].Text) {
				detections[i].RuleID = f.RuleID
				log.Debugf("(detector) gitleaks rule %s corroborates detection on line %d", f.RuleID, detections[i].Line)
				break
			}
		}
	}
}
