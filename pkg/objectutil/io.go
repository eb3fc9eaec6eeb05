/*
Copyright 2021 Stefan Prodan
Copyright 2021 The Flux authors

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

package objectutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utiljson "k8s.io/apimachinery/pkg/util/json"
	sigsyaml "sigs.k8s.io/yaml"
)

// DocumentParseError is returned when the object documents can't be parsed.
// Line and Column are zero when the parser doesn't report a position.
type DocumentParseError struct {
	Source string
	Line   int
	Column int
	Err    error
}

func (e *DocumentParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("error parsing %s: error position: (%d:%d): %v", e.Source, e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("error parsing %s: error position: (line %d): %v", e.Source, e.Line, e.Err)
	default:
		return fmt.Sprintf("error parsing %s: %v", e.Source, e.Err)
	}
}

func (e *DocumentParseError) Unwrap() error {
	return e.Err
}

var yamlLineRegexp = regexp.MustCompile(`line (\d+)`)

func newParseError(source string, err error) *DocumentParseError {
	perr := &DocumentParseError{Source: source, Err: err}
	if m := yamlLineRegexp.FindStringSubmatch(err.Error()); len(m) == 2 {
		perr.Line, _ = strconv.Atoi(m[1])
	}
	return perr
}

// ReadObjects decodes the YAML or JSON documents from the given reader.
// A document can hold a single object, a list of objects or a 'kind: List' object,
// lists are flattened and empty documents are skipped.
// Objects are kept even if they lack kind or metadata.
func ReadObjects(source string, r io.Reader) ([]*unstructured.Unstructured, error) {
	decoder := yaml.NewDecoder(r)
	objects := make([]*unstructured.Unstructured, 0)

	for {
		var doc yaml.Node
		err := decoder.Decode(&doc)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, newParseError(source, err)
		}

		if len(doc.Content) == 0 {
			continue
		}

		objs, err := nodeToObjects(source, doc.Content[0])
		if err != nil {
			return nil, err
		}
		objects = append(objects, objs...)
	}

	return objects, nil
}

func nodeToObjects(source string, node *yaml.Node) ([]*unstructured.Unstructured, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
	case yaml.MappingNode:
		obj, err := nodeToObject(source, node)
		if err != nil {
			return nil, err
		}
		if obj.IsList() && strings.HasSuffix(obj.GetKind(), "List") {
			return listItems(source, node, obj)
		}
		return []*unstructured.Unstructured{obj}, nil
	case yaml.SequenceNode:
		var objects []*unstructured.Unstructured
		for _, item := range node.Content {
			if item.Kind != yaml.MappingNode {
				return nil, &DocumentParseError{Source: source, Line: item.Line, Column: item.Column,
					Err: fmt.Errorf("list item is not an object")}
			}
			obj, err := nodeToObject(source, item)
			if err != nil {
				return nil, err
			}
			objects = append(objects, obj)
		}
		return objects, nil
	}

	return nil, &DocumentParseError{Source: source, Line: node.Line, Column: node.Column,
		Err: fmt.Errorf("document must be an object or a list of objects")}
}

func nodeToObject(source string, node *yaml.Node) (*unstructured.Unstructured, error) {
	var raw map[string]interface{}
	if err := node.Decode(&raw); err != nil {
		return nil, &DocumentParseError{Source: source, Line: node.Line, Column: node.Column, Err: err}
	}

	// round trip through JSON to get the unstructured value types (int64, float64, map[string]interface{})
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, &DocumentParseError{Source: source, Line: node.Line, Column: node.Column, Err: err}
	}

	content := map[string]interface{}{}
	if err := utiljson.Unmarshal(data, &content); err != nil {
		return nil, &DocumentParseError{Source: source, Line: node.Line, Column: node.Column, Err: err}
	}

	return &unstructured.Unstructured{Object: content}, nil
}

func listItems(source string, node *yaml.Node, list *unstructured.Unstructured) ([]*unstructured.Unstructured, error) {
	items, _, err := unstructured.NestedSlice(list.Object, "items")
	if err != nil {
		return nil, &DocumentParseError{Source: source, Line: node.Line, Column: node.Column, Err: err}
	}

	objects := make([]*unstructured.Unstructured, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, &DocumentParseError{Source: source, Line: node.Line, Column: node.Column,
				Err: fmt.Errorf("%s item is not an object", list.GetKind())}
		}
		objects = append(objects, &unstructured.Unstructured{Object: m})
	}
	return objects, nil
}

// ObjectsToJSON returns the given values as indented JSON.
func ObjectsToJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// ObjectsToYAML returns the given values as YAML.
func ObjectsToYAML(v interface{}) (string, error) {
	data, err := sigsyaml.Marshal(v)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
