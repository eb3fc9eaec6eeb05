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

// Package template renders object documents from template files.
package template

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/stefanprodan/kubereconcile/pkg/objectutil"
)

const (
	// HostVar holds the host name of the machine rendering the template.
	HostVar = "template_host"
	// PathVar holds the absolute path of the template file.
	PathVar = "template_path"
)

// RenderError is returned when a template can't be found or executed.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render template '%s': %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Renderer renders templates found in the search paths.
type Renderer struct {
	// SearchPaths are the directories where the templates are looked up, in order.
	// For each directory, '<dir>/templates/<path>' takes precedence over '<dir>/<path>'.
	SearchPaths []string
}

// Find returns the path of the template file.
func (r *Renderer) Find(name string) (string, error) {
	if filepath.IsAbs(name) {
		if isFile(name) {
			return name, nil
		}
		return "", &RenderError{Path: name, Err: os.ErrNotExist}
	}

	searchPaths := r.SearchPaths
	if len(searchPaths) == 0 {
		searchPaths = []string{"."}
	}

	for _, dir := range searchPaths {
		for _, candidate := range []string{
			filepath.Join(dir, "templates", name),
			filepath.Join(dir, name),
		} {
			if isFile(candidate) {
				return filepath.Abs(candidate)
			}
		}
	}

	return "", &RenderError{Path: name,
		Err: fmt.Errorf("not found in %s", strings.Join(searchPaths, ", "))}
}

// Render executes the template with the given variables and
// parses the output into object documents.
func (r *Renderer) Render(name string, vars map[string]interface{}) ([]*unstructured.Unstructured, error) {
	templatePath, err := r.Find(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, &RenderError{Path: name, Err: err}
	}

	values := make(map[string]interface{}, len(vars)+2)
	for k, v := range vars {
		values[k] = v
	}
	if host, err := os.Hostname(); err == nil {
		values[HostVar] = host
	}
	values[PathVar] = templatePath

	tpl, err := template.New(filepath.Base(templatePath)).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(string(data))
	if err != nil {
		return nil, &RenderError{Path: name, Err: err}
	}

	var out bytes.Buffer
	if err := tpl.Execute(&out, values); err != nil {
		return nil, &RenderError{Path: name, Err: err}
	}

	return objectutil.ReadObjects(templatePath, &out)
}

// ReadVarsFile loads the template variables from a YAML or JSON file.
func ReadVarsFile(varsPath string) (map[string]interface{}, error) {
	data, err := os.ReadFile(varsPath)
	if err != nil {
		return nil, err
	}

	vars := map[string]interface{}{}
	if err := sigsyaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("failed to parse vars file '%s': %w", varsPath, err)
	}
	return vars, nil
}

// ParseVars converts 'key=value' pairs into template variables.
func ParseVars(pairs []string) (map[string]interface{}, error) {
	vars := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 || strings.TrimSpace(kv[0]) == "" {
			return nil, fmt.Errorf("invalid variable '%s', must be in the format key=value", pair)
		}
		vars[strings.TrimSpace(kv[0])] = kv[1]
	}
	return vars, nil
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
