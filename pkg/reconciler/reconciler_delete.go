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

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/stefanprodan/kubereconcile/pkg/transport"
)

// delete removes the named object, not found errors are ignored.
func (r *Reconciler) delete(ctx context.Context, object *unstructured.Unstructured,
	collectionURL string, creds transport.Credentials) (*Result, error) {
	objURL, err := objectURL(collectionURL, object, Absent)
	if err != nil {
		return nil, err
	}

	resp, err := r.do(ctx, http.MethodDelete, objURL, "", nil, creds)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &Result{
			Changed: false,
			Message: fmt.Sprintf("Resource name '%s' already absent", object.GetName()),
			Entry:   changeSetEntry(object, UnchangedAction),
		}, nil
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, newRemoteRejectedError(http.MethodDelete, objURL, resp)
	}

	return &Result{
		Changed: true,
		Message: fmt.Sprintf("Successfully deleted resource name '%s'", object.GetName()),
		Entry:   changeSetEntry(object, DeletedAction),
	}, nil
}
