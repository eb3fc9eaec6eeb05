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
	"encoding/json"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/stefanprodan/kubereconcile/pkg/transport"
)

// MissingResourceNameError is returned when the object has no metadata.name
// and the desired state requires one.
type MissingResourceNameError struct {
	State State
}

func (e *MissingResourceNameError) Error() string {
	return fmt.Sprintf("missing a named resource in object metadata when trying to %s a resource", e.State.verb())
}

// RemoteRejectedError is returned when the API responds with an unhandled error status.
type RemoteRejectedError struct {
	StatusCode int
	Method     string
	URL        string
	Body       interface{}

	status *apierrors.StatusError
}

func newRemoteRejectedError(method, url string, resp *transport.Response) *RemoteRejectedError {
	e := &RemoteRejectedError{
		StatusCode: resp.StatusCode,
		Method:     method,
		URL:        url,
		Body:       resp.Body,
	}

	if obj, ok := resp.Object(); ok && obj.GetKind() == "Status" {
		var status metav1.Status
		if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, &status); err == nil {
			e.status = &apierrors.StatusError{ErrStatus: status}
		}
	}

	return e
}

func (e *RemoteRejectedError) Error() string {
	var msg string
	switch {
	case e.status != nil && e.status.ErrStatus.Message != "":
		msg = e.status.ErrStatus.Message
	case e.Body != nil:
		data, _ := json.Marshal(e.Body)
		msg = string(data)
	default:
		msg = "empty response"
	}
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.URL, e.StatusCode, msg)
}

// Unwrap returns the API status error, so that the apierrors helpers
// like IsForbidden can be used on the rejection.
func (e *RemoteRejectedError) Unwrap() error {
	if e.status == nil {
		return nil
	}
	return e.status
}
