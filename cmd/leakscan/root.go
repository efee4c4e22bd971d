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
	"errors"
	"fmt"
	"strings"

	"github.com/in-toto/go-leakscan/log"
	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configName = ".leakscan"
	envPrefix  = "LEAKSCAN"
)

var _ log.Logger = (*logrus.Logger)(nil)

// app holds state shared by every command. Flag values are read through v so
// that the config file and LEAKSCAN_* variables apply to all of them.
type app struct {
	v          *viper.Viper
	configPath string
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "leakscan",
		Short:         "Find hard-coded secrets in source trees with a learned classifier",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a config file (default .leakscan.yaml in the working or home directory)")
	root.PersistentFlags().StringP("log-level", "l", "info", "Level of logging to output (debug, info, warn, error)")

	root.AddCommand(newScanCmd(a), newTrainCmd(a), newInspectCmd(a), newVersionCmd())
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if err := a.loadConfig(); err != nil {
		return err
	}

	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	level, err := logrus.ParseLevel(a.v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(level)
	log.SetLogger(logger)
	return nil
}

func (a *app) loadConfig() error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	if a.configPath != "" {
		path, err := homedir.Expand(a.configPath)
		if err != nil {
			return fmt.Errorf("invalid config path: %w", err)
		}

		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config %s: %w", path, err)
		}

		return nil
	}

	a.v.SetConfigName(configName)
	a.v.SetConfigType("yaml")
	a.v.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		a.v.AddConfigPath(home)
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config: %w", err)
		}
	}

	return nil
}

// path reads a path flag and expands a leading ~.
func (a *app) path(key string) (string, error) {
	p := a.v.GetString(key)
	if p == "" {
		return "", nil
	}

	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("invalid %s path %q: %w", key, p, err)
	}

	return expanded, nil
}
