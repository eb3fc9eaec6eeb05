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

package reconciler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/stefanprodan/kubereconcile/pkg/transport"
)

// Result holds the outcome of the reconciliation of a single object.
type Result struct {
	// Changed is true if the API accepted a mutation.
	Changed bool
	// Object is the object returned by the API, nil for deletions.
	Object *unstructured.Unstructured
	// Message describes the outcome when there is no object to return.
	Message string
	// Entry is the change set entry for this object.
	Entry ChangeSetEntry
}

// Body returns the object content or the message if there is no object.
func (r *Result) Body() interface{} {
	if r.Object != nil {
		return r.Object.Object
	}
	return r.Message
}

type handlerFunc func(r *Reconciler, ctx context.Context, object *unstructured.Unstructured, collectionURL string, creds transport.Credentials) (*Result, error)

// handlers maps every State to its reconcile function.
var handlers = map[State]handlerFunc{
	Present: (*Reconciler).create,
	Absent:  (*Reconciler).delete,
	Replace: (*Reconciler).replace,
	Update:  (*Reconciler).update,
}

// Reconciler issues the API calls that bring an object to its desired state.
type Reconciler struct {
	transport transport.Interface
}

// New returns a Reconciler that performs the API calls with the given transport.
func New(t transport.Interface) *Reconciler {
	return &Reconciler{transport: t}
}

// Reconcile drives the object to the desired state using the collection URL of its kind.
// Soft no-ops, like creating an object that already exists or deleting an object
// that is not found, return a result with Changed set to false and no error.
func (r *Reconciler) Reconcile(ctx context.Context, object *unstructured.Unstructured, state State,
	collectionURL string, creds transport.Credentials) (*Result, error) {
	handle, ok := handlers[state]
	if !ok {
		return nil, fmt.Errorf("state '%s' is not supported", state)
	}
	if object == nil {
		return nil, fmt.Errorf("object is nil")
	}
	if object.Object == nil {
		object = &unstructured.Unstructured{Object: map[string]interface{}{}}
	}
	return handle(r, ctx, object, collectionURL, creds)
}

func (r *Reconciler) do(ctx context.Context, method, reqURL, contentType string, body *unstructured.Unstructured,
	creds transport.Credentials) (*transport.Response, error) {
	req := &transport.Request{
		Method:      method,
		URL:         reqURL,
		Credentials: creds,
	}
	if body != nil {
		req.Body = body.Object
		req.Headers = map[string]string{"Content-Type": contentType}
	}
	return r.transport.Do(ctx, req)
}

// fetch returns the in-cluster object.
func (r *Reconciler) fetch(ctx context.Context, objURL string, creds transport.Credentials) (*unstructured.Unstructured, error) {
	resp, err := r.do(ctx, http.MethodGet, objURL, "", nil, creds)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newRemoteRejectedError(http.MethodGet, objURL, resp)
	}
	obj, _ := resp.Object()
	return obj, nil
}

// unchanged returns the in-cluster object as a soft no-op result.
func (r *Reconciler) unchanged(ctx context.Context, object *unstructured.Unstructured,
	objURL string, creds transport.Credentials) (*Result, error) {
	existing, err := r.fetch(ctx, objURL, creds)
	if err != nil {
		return nil, err
	}
	return &Result{
		Changed: false,
		Object:  existing,
		Entry:   changeSetEntry(object, UnchangedAction),
	}, nil
}

func objectURL(collectionURL string, object *unstructured.Unstructured, state State) (string, error) {
	name := object.GetName()
	if name == "" {
		return "", &MissingResourceNameError{State: state}
	}
	return strings.TrimSuffix(collectionURL, "/") + "/" + url.PathEscape(name), nil
}
