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

package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	utiljson "k8s.io/apimachinery/pkg/util/json"
	clienttransport "k8s.io/client-go/transport"
)

const DefaultUserAgent = "kubereconcile/v1"

// Options holds the settings shared by all API calls.
type Options struct {
	// UserAgent is sent with every request, defaults to DefaultUserAgent.
	UserAgent string

	// CAFile is the path to a PEM encoded bundle used to verify the API server certificate.
	CAFile string

	// CAData holds PEM encoded bytes, used when CAFile is empty.
	CAData []byte

	// CertData and KeyData hold the PEM encoded client certificate and key.
	CertData []byte
	KeyData  []byte

	// InsecureSkipTLSVerify disables the API server certificate verification.
	InsecureSkipTLSVerify bool

	// Timeout limits the duration of a single call, zero means no limit.
	Timeout time.Duration

	// Transport overrides the base round tripper, used in tests.
	Transport http.RoundTripper
}

// HTTPClient performs API calls over HTTP(S).
type HTTPClient struct {
	rt      http.RoundTripper
	timeout time.Duration
}

// NewHTTP creates an HTTPClient for the given options.
func NewHTTP(opts Options) (*HTTPClient, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	rt, err := clienttransport.New(&clienttransport.Config{
		UserAgent: opts.UserAgent,
		Transport: opts.Transport,
		TLS: clienttransport.TLSConfig{
			CAFile:   opts.CAFile,
			CAData:   opts.CAData,
			CertData: opts.CertData,
			KeyData:  opts.KeyData,
			Insecure: opts.InsecureSkipTLSVerify,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("transport initialization failed: %w", err)
	}

	return &HTTPClient{
		rt:      rt,
		timeout: opts.Timeout,
	}, nil
}

// Do sends the request and decodes the JSON response body.
func (c *HTTPClient) Do(ctx context.Context, r *Request) (*Response, error) {
	var body io.Reader
	if r.Body != nil {
		data, err := utiljson.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding the %s %s request body failed: %w", r.Method, r.URL, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, &TransportError{Method: r.Method, URL: r.URL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{
		Transport: r.Credentials.wrap(c.rt),
		Timeout:   c.timeout,
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Method: r.Method, URL: r.URL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: r.Method, URL: r.URL, Err: err}
	}

	result := &Response{StatusCode: resp.StatusCode}
	if len(bytes.TrimSpace(data)) == 0 {
		return result, nil
	}

	var decoded interface{}
	if err := utiljson.Unmarshal(data, &decoded); err != nil {
		return nil, &ParseError{StatusCode: resp.StatusCode, Method: r.Method, URL: r.URL, Err: err}
	}
	result.Body = decoded

	return result, nil
}
