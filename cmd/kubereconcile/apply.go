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
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/stefanprodan/kubereconcile/pkg/batch"
	"github.com/stefanprodan/kubereconcile/pkg/objectutil"
	"github.com/stefanprodan/kubereconcile/pkg/reconciler"
	"github.com/stefanprodan/kubereconcile/pkg/template"
	"github.com/stefanprodan/kubereconcile/pkg/transport"
)

const secretMask = "*****"

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply reconciles the given objects to the desired state using the Kubernetes core API.",
	Long: `Apply reconciles the given objects to the desired state using the Kubernetes core API.

The desired state is one of:
- present: the object is created if it doesn't exist
- absent: the object is deleted if it exists
- replace: the object is overwritten
- update: the object is merged into the existing one

Every flag can be set with an environment variable prefixed with KUBERECONCILE_,
e.g. KUBERECONCILE_TOKEN or KUBERECONCILE_VARS_FILE.`,
	Example: `  # Create a namespace
  kubereconcile apply --endpoint 10.0.0.1:6443 --token $TOKEN --state present \
    --inline '{"kind": "Namespace", "metadata": {"name": "apps"}}'

  # Render a template and merge the result into the existing objects
  kubereconcile apply --endpoint localhost:8080 --insecure --state update \
    --template service.yaml --var name=frontend --vars-file vars.yaml

  # Delete the objects read from stdin using the current kubeconfig context
  cat objects.yaml | kubereconcile apply --state absent --inline -`,
	RunE: runApplyCmd,
}

type applyFlags struct {
	endpoint              string
	username              string
	password              string
	token                 string
	insecure              bool
	caFile                string
	insecureSkipTLSVerify bool
	state                 string
	template              string
	templateDirs          []string
	vars                  []string
	varsFile              string
	inline                string
	output                string
	showSecrets           bool
}

var applyArgs applyFlags

func init() {
	applyCmd.Flags().StringVar(&applyArgs.endpoint, "endpoint", "",
		"The API server host, e.g. '10.0.0.1:6443'. When not specified, the server is taken from the kubeconfig.")
	applyCmd.Flags().StringVar(&applyArgs.username, "username", "", "The username for basic authentication.")
	applyCmd.Flags().StringVar(&applyArgs.password, "password", "", "The password for basic authentication.")
	applyCmd.Flags().StringVar(&applyArgs.token, "token", "",
		"The bearer token for authentication, takes precedence over basic authentication.")
	applyCmd.Flags().BoolVar(&applyArgs.insecure, "insecure", false, "Connect to the API server over plain HTTP.")
	applyCmd.Flags().StringVar(&applyArgs.caFile, "ca-file", "", "Path to a PEM encoded CA bundle for the API server certificate.")
	applyCmd.Flags().BoolVar(&applyArgs.insecureSkipTLSVerify, "insecure-skip-tls-verify", false,
		"Skip the API server certificate verification.")
	applyCmd.Flags().StringVarP(&applyArgs.state, "state", "s", "",
		fmt.Sprintf("The desired state of the objects, one of: %s.", strings.Join(stateNames(), ", ")))
	applyCmd.Flags().StringVarP(&applyArgs.template, "template", "t", "", "Path to a template file that renders the objects.")
	applyCmd.Flags().StringSliceVar(&applyArgs.templateDirs, "template-dir", nil,
		"Directories where templates are looked up, defaults to the current directory.")
	applyCmd.Flags().StringArrayVar(&applyArgs.vars, "var", nil, "Template variable in the format 'key=value'.")
	applyCmd.Flags().StringVar(&applyArgs.varsFile, "vars-file", "", "Path to a YAML or JSON file with template variables.")
	applyCmd.Flags().StringVarP(&applyArgs.inline, "inline", "i", "",
		"The objects as a YAML or JSON document, '-' reads the document from stdin.")
	applyCmd.Flags().StringVarP(&applyArgs.output, "output", "o", "json", "The result format, one of: json, yaml.")
	applyCmd.Flags().BoolVar(&applyArgs.showSecrets, "show-secrets", false, "Print the Secret values returned by the API.")

	rootCmd.AddCommand(applyCmd)
}

// applyResult is the result printed to stdout.
type applyResult struct {
	Changed     bool          `json:"changed"`
	Failed      bool          `json:"failed"`
	Message     string        `json:"msg,omitempty"`
	APIResponse []interface{} `json:"api_response"`
}

func runApplyCmd(cmd *cobra.Command, args []string) error {
	if err := bindEnv(cmd.Flags()); err != nil {
		return printFailure(err)
	}

	switch applyArgs.output {
	case "", "json", "yaml":
	default:
		return fmt.Errorf("output format '%s' is not supported, must be one of: json, yaml", applyArgs.output)
	}

	objects, err := readObjects(cmd)
	if err != nil {
		return printFailure(err)
	}

	target, err := newAPITarget(kubeconfigArgs)
	if err != nil {
		return printFailure(err)
	}

	resolver, err := cfg.Resolver()
	if err != nil {
		return printFailure(err)
	}

	httpClient, err := transport.NewHTTP(target.options)
	if err != nil {
		return printFailure(err)
	}

	coordinator := batch.NewCoordinator(resolver, reconciler.New(httpClient), logger.Logr(rootArgs.verbose))

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	logger.Println(fmt.Sprintf("reconciling %v object(s) to %s...", len(objects), applyArgs.state))
	result := coordinator.Run(ctx, &batch.Request{
		Endpoint:    target.endpoint,
		Insecure:    target.insecure,
		Credentials: target.credentials,
		State:       applyArgs.state,
		Objects:     objects,
	})

	for _, change := range result.ChangeSet.Entries {
		if change.Action == string(reconciler.FailedAction) {
			logger.Failure(change.String())
			continue
		}
		logger.Println(change.String())
	}

	if err := printResult(result); err != nil {
		return err
	}

	if result.Failed {
		return fmt.Errorf("reconciliation failed")
	}

	logger.Success("reconciliation completed")
	return nil
}

// readObjects returns the objects from the inline document or the rendered template.
func readObjects(cmd *cobra.Command) ([]*unstructured.Unstructured, error) {
	switch {
	case applyArgs.template != "" && applyArgs.inline != "":
		return nil, &batch.ValidationError{Field: "template", Reason: "--template and --inline are mutually exclusive"}
	case applyArgs.template == "" && applyArgs.inline == "":
		return nil, &batch.ValidationError{Field: "template", Reason: "one of --template or --inline is required"}
	case applyArgs.inline == "-":
		return objectutil.ReadObjects("stdin", cmd.InOrStdin())
	case applyArgs.inline != "":
		return objectutil.ReadObjects("inline document", strings.NewReader(applyArgs.inline))
	}

	vars := map[string]interface{}{}
	if applyArgs.varsFile != "" {
		v, err := template.ReadVarsFile(applyArgs.varsFile)
		if err != nil {
			return nil, err
		}
		vars = v
	}

	// --var takes precedence over the vars file
	v, err := template.ParseVars(applyArgs.vars)
	if err != nil {
		return nil, &batch.ValidationError{Field: "var", Reason: err.Error()}
	}
	for key, value := range v {
		vars[key] = value
	}

	renderer := &template.Renderer{SearchPaths: applyArgs.templateDirs}
	return renderer.Render(applyArgs.template, vars)
}

// bindEnv sets the flags that were not changed on the command line
// from the KUBERECONCILE_<FLAG_NAME> environment variables.
func bindEnv(flags *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvPrefix(PROJECT)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		if serr := flags.Set(f.Name, v.GetString(f.Name)); serr != nil {
			err = &batch.ValidationError{Field: f.Name, Reason: serr.Error()}
		}
	})
	return err
}

// printFailure prints a failed result for errors detected before any API call.
func printFailure(err error) error {
	if perr := printResult(&batch.Result{Failed: true, Message: err.Error()}); perr != nil {
		return perr
	}
	return err
}

func printResult(result *batch.Result) error {
	out := applyResult{
		Changed:     result.Changed,
		Failed:      result.Failed,
		APIResponse: make([]interface{}, 0, len(result.Bodies)),
	}
	if result.Failed {
		out.Message = result.Message
	}

	for _, body := range result.Bodies {
		masked, err := maskBody(body)
		if err != nil {
			return err
		}
		out.APIResponse = append(out.APIResponse, masked)
	}

	var data string
	var err error
	switch applyArgs.output {
	case "yaml":
		data, err = objectutil.ObjectsToYAML(out)
	default:
		data, err = objectutil.ObjectsToJSON(out)
	}
	if err != nil {
		return err
	}

	rootCmd.Println(data)
	return nil
}

// maskBody hides the values of the Secret objects unless --show-secrets is set.
func maskBody(body interface{}) (interface{}, error) {
	m, ok := body.(map[string]interface{})
	if !ok || applyArgs.showSecrets {
		return body, nil
	}

	object := &unstructured.Unstructured{Object: m}
	if !objectutil.IsSecret(object) {
		return body, nil
	}

	masked, err := objectutil.MaskSecret(object.DeepCopy(), secretMask)
	if err != nil {
		return nil, err
	}
	return masked.Object, nil
}

func stateNames() []string {
	var names []string
	for _, state := range reconciler.States() {
		names = append(names, string(state))
	}
	return names
}
