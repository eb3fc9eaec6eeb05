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

	"github.com/stefanprodan/kubereconcile/pkg/transport"
)

// create posts the object to the collection URL.
// If the object already exists, the in-cluster object is returned unchanged.
func (r *Reconciler) create(ctx context.Context, object *unstructured.Unstructured,
	collectionURL string, creds transport.Credentials) (*Result, error) {
	resp, err := r.do(ctx, http.MethodPost, collectionURL, runtime.ContentTypeJSON, object, creds)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		objURL, err := objectURL(collectionURL, object, Present)
		if err != nil {
			return nil, err
		}
		return r.unchanged(ctx, object, objURL, creds)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, newRemoteRejectedError(http.MethodPost, collectionURL, resp)
	}

	created, _ := resp.Object()
	return &Result{
		Changed: true,
		Object:  created,
		Entry:   changeSetEntry(object, CreatedAction),
	}, nil
}
