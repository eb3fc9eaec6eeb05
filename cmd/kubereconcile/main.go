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
	"time"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"github.com/stefanprodan/kubereconcile/pkg/config"
)

var VERSION = "1.0.0-dev.0"

const PROJECT = "kubereconcile"

var rootCmd = &cobra.Command{
	Use:           PROJECT,
	Version:       VERSION,
	SilenceUsage:  true,
	SilenceErrors: true,
	Short:         "A command line utility to reconcile objects against the Kubernetes core API.",
	Long: `Kubereconcile drives Kubernetes objects to a desired state using the core REST API.

Reconcile objects rendered from a template or passed inline:

- kubereconcile apply --endpoint <host> --state present --template <path> [--var key=value]
- kubereconcile apply --endpoint <host> --state absent --inline <yaml|json|->
- kubereconcile apply --state replace|update --inline - (target taken from kubeconfig)

List the known resource kinds and their API paths:

- kubereconcile kinds

Manage the config file:

- kubereconcile config init
- kubereconcile config view
`,
}

type rootFlags struct {
	timeout time.Duration
	verbose int
}

var (
	rootArgs = rootFlags{}
	logger   = stderrLogger{stderr: os.Stderr}
	cfg      = config.NewConfig()
)

var kubeconfigArgs = genericclioptions.NewConfigFlags(false)

func init() {
	rootCmd.PersistentFlags().DurationVar(&rootArgs.timeout, "timeout", time.Minute,
		"The length of time to wait before giving up on the current operation.")
	rootCmd.PersistentFlags().IntVarP(&rootArgs.verbose, "verbose", "v", 0,
		"Log verbosity, 1 logs every API call outcome, 2 adds the resolved endpoints.")

	// the API target and credentials are set by the apply flags
	kubeconfigArgs.Timeout = nil
	kubeconfigArgs.Namespace = nil
	kubeconfigArgs.APIServer = nil
	kubeconfigArgs.Insecure = nil
	kubeconfigArgs.BearerToken = nil
	kubeconfigArgs.Username = nil
	kubeconfigArgs.Password = nil
	kubeconfigArgs.AddFlags(rootCmd.PersistentFlags())

	rootCmd.DisableAutoGenTag = true
	rootCmd.SetOut(os.Stdout)
}

func main() {
	loadConfig()
	if err := rootCmd.Execute(); err != nil {
		logger.Failure(err)
		os.Exit(1)
	}
}

func loadConfig() {
	if c, err := config.Read(""); err != nil {
		logger.Failure(fmt.Errorf("loading the config failed, error: %w", err))
	} else {
		cfg = c
	}
}
