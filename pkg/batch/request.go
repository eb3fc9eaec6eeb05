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

package batch

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/stefanprodan/kubereconcile/pkg/reconciler"
	"github.com/stefanprodan/kubereconcile/pkg/transport"
)

// ValidationError is returned when a required invocation input is missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Request holds the inputs of a run.
type Request struct {
	// Endpoint is the API server host, without scheme.
	Endpoint string
	// Insecure selects plain HTTP instead of HTTPS.
	Insecure bool
	// Credentials are sent with every API call.
	Credentials transport.Credentials
	// State is the desired state of all the objects.
	State string
	// Objects are reconciled in order.
	Objects []*unstructured.Unstructured
}

// Validate checks the request inputs before any API call is made.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Endpoint) == "" {
		return &ValidationError{Field: "endpoint", Reason: "api endpoint is required"}
	}
	if r.State == "" {
		return &ValidationError{Field: "state", Reason: "desired state is required"}
	}
	if _, err := reconciler.ParseState(r.State); err != nil {
		return &ValidationError{Field: "state", Reason: err.Error()}
	}
	if err := r.Credentials.Validate(); err != nil {
		return &ValidationError{Field: "credentials", Reason: err.Error()}
	}
	if len(r.Objects) == 0 {
		return &ValidationError{Field: "objects", Reason: "at least one object document is required"}
	}
	for i, object := range r.Objects {
		if object == nil {
			return &ValidationError{Field: "objects", Reason: fmt.Sprintf("document %d is missing", i)}
		}
	}
	return nil
}
