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
	"net/http"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"

	"github.com/stefanprodan/kubereconcile/pkg/transport"
)

// replace overwrites the named object with the given one.
func (r *Reconciler) replace(ctx context.Context, object *unstructured.Unstructured,
	collectionURL string, creds transport.Credentials) (*Result, error) {
	return r.modify(ctx, object, Replace, http.MethodPut, runtime.ContentTypeJSON, ReplacedAction, collectionURL, creds)
}

// update merges the given object into the named object using a strategic merge patch.
func (r *Reconciler) update(ctx context.Context, object *unstructured.Unstructured,
	collectionURL string, creds transport.Credentials) (*Result, error) {
	return r.modify(ctx, object, Update, http.MethodPatch, string(types.StrategicMergePatchType), ConfiguredAction, collectionURL, creds)
}

// modify sends the object to its URL with the given method.
// On conflict, the in-cluster object is returned unchanged.
func (r *Reconciler) modify(ctx context.Context, object *unstructured.Unstructured, state State,
	method, contentType string, action Action, collectionURL string, creds transport.Credentials) (*Result, error) {
	objURL, err := objectURL(collectionURL, object, state)
	if err != nil {
		return nil, err
	}

	resp, err := r.do(ctx, method, objURL, contentType, object, creds)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		return r.unchanged(ctx, object, objURL, creds)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, newRemoteRejectedError(method, objURL, resp)
	}

	modified, _ := resp.Object()
	return &Result{
		Changed: true,
		Object:  modified,
		Entry:   changeSetEntry(object, action),
	}, nil
}
