/*
Copyright 2021 Stefan Prodan

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/stefanprodan/kubereconcile/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the kubereconcile config file.",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Init writes a config file with default values, an existing file is kept unless --force is set.",
	Example: `  # Write the defaults to $HOME/.kubereconcile/config
  kubereconcile config init

  # Overwrite a config file at a custom path
  kubereconcile config init --config-path ./config --force`,
	RunE: runConfigInitCmd,
}

var configViewCmd = &cobra.Command{
	Use: "view",
	Short: "Display the config values in use. " +
		"If no config file is found, the default values are displayed.",
	RunE: runConfigViewCmd,
}

type configFlags struct {
	path  string
	force bool
}

var configArgs configFlags

func init() {
	configCmd.PersistentFlags().StringVar(&configArgs.path, "config-path", "",
		"Path to the config file, defaults to '$HOME/.kubereconcile/config'.")
	configInitCmd.Flags().BoolVar(&configArgs.force, "force", false, "Overwrite the existing config file.")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configViewCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInitCmd(cmd *cobra.Command, args []string) error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil && !configArgs.force {
		return fmt.Errorf("config file '%s' already exists, use --force to overwrite it", cfgPath)
	}

	if err := config.NewConfig().Write(cfgPath); err != nil {
		return err
	}

	logger.Success("config written to", cfgPath)
	return nil
}

func runConfigViewCmd(cmd *cobra.Command, args []string) error {
	c := cfg
	if configArgs.path != "" {
		fromPath, err := config.Read(configArgs.path)
		if err != nil {
			return err
		}
		c = fromPath
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	rootCmd.Println(string(data))
	return nil
}

// configFilePath returns the --config-path value or the default location.
func configFilePath() (string, error) {
	if configArgs.path != "" {
		return configArgs.path, nil
	}
	return config.DefaultConfigPath()
}
