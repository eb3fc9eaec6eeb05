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

// Package transport performs the HTTP calls against the cluster API.
//
// A call either returns a Response holding the status code and the JSON decoded body,
// or fails with a TransportError (the request could not be completed)
// or a ParseError (the response body is not valid JSON).
// Credentials travel with every Request, the client holds no authentication state.
package transport

import (
	"context"
	"fmt"
	"net/http"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	clienttransport "k8s.io/client-go/transport"
)

// Interface performs a single blocking API call.
type Interface interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Credentials holds the authentication data for an API call.
type Credentials struct {
	Username    string
	Password    string
	BearerToken string
}

// HasBasicAuth returns true if a username or a password is set.
func (c Credentials) HasBasicAuth() bool {
	return c.Username != "" || c.Password != ""
}

// Validate checks that the basic auth pair is complete.
func (c Credentials) Validate() error {
	if c.HasBasicAuth() && (c.Username == "" || c.Password == "") {
		return fmt.Errorf("username and password must both be provided if either is provided")
	}
	return nil
}

// wrap returns a round tripper that authenticates the requests.
// The bearer token takes precedence over basic auth.
func (c Credentials) wrap(rt http.RoundTripper) http.RoundTripper {
	switch {
	case c.BearerToken != "":
		return clienttransport.NewBearerAuthRoundTripper(c.BearerToken, rt)
	case c.HasBasicAuth():
		return clienttransport.NewBasicAuthRoundTripper(c.Username, c.Password, rt)
	default:
		return rt
	}
}

// Request describes an API call.
type Request struct {
	Method      string
	URL         string
	Headers     map[string]string
	Body        interface{}
	Credentials Credentials
}

// Response holds the status code and the decoded body of an API call.
// Body is nil when the server returns an empty payload.
type Response struct {
	StatusCode int
	Body       interface{}
}

// Object returns the response body as an unstructured object.
func (r *Response) Object() (*unstructured.Unstructured, bool) {
	if r == nil {
		return nil, false
	}
	m, ok := r.Body.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return &unstructured.Unstructured{Object: m}, true
}

// TransportError is returned when the API call could not be completed.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to execute the API request %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError is returned when the response body can't be decoded.
type ParseError struct {
	StatusCode int
	Method     string
	URL        string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to decode the API response of %s %s (status %d): %v", e.Method, e.URL, e.StatusCode, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
