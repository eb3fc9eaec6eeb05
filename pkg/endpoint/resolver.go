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

package endpoint

import (
	"fmt"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// UnknownResourceKindError is returned when a kind has no collection endpoint.
type UnknownResourceKindError struct {
	Kind string
}

func (e *UnknownResourceKindError) Error() string {
	return fmt.Sprintf("invalid resource kind specified in the data: '%s'", e.Kind)
}

// Kind holds a known resource kind and its collection path template.
type Kind struct {
	Name     string
	Template string
}

// Namespaced returns true if the template contains the namespace placeholder.
func (k Kind) Namespaced() bool {
	return strings.Contains(k.Template, NamespacePlaceholder)
}

// Resolver maps resource kinds to collection URLs.
// The kind table is fixed at construction.
type Resolver struct {
	kinds map[string]string
}

// NewResolver returns a Resolver for the built-in kinds extended with the given ones.
// The extra kinds override the built-in entries with the same name.
func NewResolver(extra map[string]string) (*Resolver, error) {
	kinds := DefaultKinds()
	for kind, tpl := range extra {
		kind = strings.ToLower(strings.TrimSpace(kind))
		if kind == "" {
			return nil, fmt.Errorf("kind name can't be empty")
		}
		if !strings.HasPrefix(tpl, "/") {
			return nil, fmt.Errorf("path template '%s' for kind '%s' must start with '/'", tpl, kind)
		}
		kinds[kind] = tpl
	}
	return &Resolver{kinds: kinds}, nil
}

// Resolve returns the collection URL for the given kind,
// with the namespace placeholder replaced by the given namespace.
func (r *Resolver) Resolve(base, kind, namespace string) (string, error) {
	tpl, ok := r.kinds[strings.ToLower(kind)]
	if !ok {
		return "", &UnknownResourceKindError{Kind: strings.ToLower(kind)}
	}

	if namespace == "" {
		namespace = DefaultNamespace
	}

	return strings.TrimSuffix(base, "/") + strings.ReplaceAll(tpl, NamespacePlaceholder, namespace), nil
}

// ResolveObject returns the collection URL for the given object.
// Objects without a metadata block are opaque and target the base URL.
func (r *Resolver) ResolveObject(base string, object *unstructured.Unstructured) (string, error) {
	if object == nil || object.Object == nil {
		return base, nil
	}
	if _, ok := object.Object["metadata"]; !ok {
		return base, nil
	}
	return r.Resolve(base, object.GetKind(), object.GetNamespace())
}

// Kinds returns the known kinds sorted by name.
func (r *Resolver) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.kinds))
	for name, tpl := range r.kinds {
		kinds = append(kinds, Kind{Name: name, Template: tpl})
	}
	sort.Slice(kinds, func(i, j int) bool {
		return kinds[i].Name < kinds[j].Name
	})
	return kinds
}

// BaseURL returns the API server URL for the given host,
// using plain HTTP when insecure is set and HTTPS otherwise.
func BaseURL(host string, insecure bool) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("api endpoint can't be empty")
	}
	if strings.Contains(host, "://") {
		return "", fmt.Errorf("api endpoint '%s' must be a host without scheme", host)
	}
	if strings.ContainsAny(host, "/?#") {
		return "", fmt.Errorf("api endpoint '%s' must be a host without path", host)
	}

	scheme := "https"
	if insecure {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s", scheme, host), nil
}
