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
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/gomega"
)

type capturedRequest struct {
	method        string
	path          string
	authorization string
	userAgent     string
	contentType   string
	body          string
}

func newTestServer(status int, payload string, captured *capturedRequest) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		*captured = capturedRequest{
			method:        r.Method,
			path:          r.URL.Path,
			authorization: r.Header.Get("Authorization"),
			userAgent:     r.Header.Get("User-Agent"),
			contentType:   r.Header.Get("Content-Type"),
			body:          string(data),
		}
		w.WriteHeader(status)
		fmt.Fprint(w, payload)
	}))
}

func TestHTTPClient_Do(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()

	client, err := NewHTTP(Options{})
	g.Expect(err).NotTo(HaveOccurred())

	t.Run("sends the body and decodes the response", func(t *testing.T) {
		var captured capturedRequest
		srv := newTestServer(http.StatusCreated, `{"kind":"Namespace","metadata":{"name":"test","generation":1}}`, &captured)
		defer srv.Close()

		resp, err := client.Do(ctx, &Request{
			Method:  http.MethodPost,
			URL:     srv.URL + "/api/v1/namespaces",
			Headers: map[string]string{"Content-Type": "application/json"},
			Body: map[string]interface{}{
				"kind":     "Namespace",
				"metadata": map[string]interface{}{"name": "test"},
			},
		})
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		obj, ok := resp.Object()
		g.Expect(ok).To(BeTrue())
		g.Expect(obj.GetName()).To(Equal("test"))
		g.Expect(obj.GetGeneration()).To(Equal(int64(1)))

		g.Expect(captured.method).To(Equal(http.MethodPost))
		g.Expect(captured.path).To(Equal("/api/v1/namespaces"))
		g.Expect(captured.contentType).To(Equal("application/json"))
		g.Expect(captured.userAgent).To(Equal(DefaultUserAgent))
		g.Expect(captured.authorization).To(BeEmpty())
		g.Expect(captured.body).To(MatchJSON(`{"kind":"Namespace","metadata":{"name":"test"}}`))
	})

	t.Run("returns a nil body for empty responses", func(t *testing.T) {
		var captured capturedRequest
		srv := newTestServer(http.StatusOK, "", &captured)
		defer srv.Close()

		resp, err := client.Do(ctx, &Request{Method: http.MethodGet, URL: srv.URL})
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(resp.Body).To(BeNil())

		_, ok := resp.Object()
		g.Expect(ok).To(BeFalse())
	})

	t.Run("returns a parse error for invalid JSON", func(t *testing.T) {
		var captured capturedRequest
		srv := newTestServer(http.StatusBadGateway, "<html>bad gateway</html>", &captured)
		defer srv.Close()

		_, err := client.Do(ctx, &Request{Method: http.MethodGet, URL: srv.URL})
		g.Expect(err).To(HaveOccurred())

		var parseErr *ParseError
		g.Expect(errors.As(err, &parseErr)).To(BeTrue())
		g.Expect(parseErr.StatusCode).To(Equal(http.StatusBadGateway))
	})

	t.Run("returns a transport error when the server is down", func(t *testing.T) {
		var captured capturedRequest
		srv := newTestServer(http.StatusOK, "", &captured)
		srv.Close()

		_, err := client.Do(ctx, &Request{Method: http.MethodDelete, URL: srv.URL + "/api/v1/namespaces/test"})
		g.Expect(err).To(HaveOccurred())

		var transportErr *TransportError
		g.Expect(errors.As(err, &transportErr)).To(BeTrue())
		g.Expect(transportErr.Method).To(Equal(http.MethodDelete))
	})

	t.Run("honours the call timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
		}))
		defer srv.Close()

		slow, err := NewHTTP(Options{Timeout: 50 * time.Millisecond})
		g.Expect(err).NotTo(HaveOccurred())

		_, err = slow.Do(ctx, &Request{Method: http.MethodGet, URL: srv.URL})
		var transportErr *TransportError
		g.Expect(errors.As(err, &transportErr)).To(BeTrue())
	})
}

func TestCredentials(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()

	client, err := NewHTTP(Options{UserAgent: "test/v1"})
	g.Expect(err).NotTo(HaveOccurred())

	tests := []struct {
		name        string
		credentials Credentials
		want        string
	}{
		{
			name: "anonymous",
			want: "",
		},
		{
			name:        "basic auth",
			credentials: Credentials{Username: "admin", Password: "secret"},
			want:        "Basic YWRtaW46c2VjcmV0",
		},
		{
			name:        "bearer token",
			credentials: Credentials{BearerToken: "abc"},
			want:        "Bearer abc",
		},
		{
			name:        "token takes precedence over basic auth",
			credentials: Credentials{Username: "admin", Password: "secret", BearerToken: "abc"},
			want:        "Bearer abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured capturedRequest
			srv := newTestServer(http.StatusOK, "{}", &captured)
			defer srv.Close()

			_, err := client.Do(ctx, &Request{Method: http.MethodGet, URL: srv.URL, Credentials: tt.credentials})
			g.Expect(err).NotTo(HaveOccurred())

			if diff := cmp.Diff(tt.want, captured.authorization); diff != "" {
				t.Errorf("Mismatch from expected value (-want +got):\n%s", diff)
			}
			g.Expect(captured.userAgent).To(Equal("test/v1"))
		})
	}
}

func TestCredentials_Validate(t *testing.T) {
	g := NewWithT(t)

	g.Expect(Credentials{}.Validate()).To(Succeed())
	g.Expect(Credentials{Username: "admin", Password: "secret"}.Validate()).To(Succeed())
	g.Expect(Credentials{BearerToken: "abc"}.Validate()).To(Succeed())
	g.Expect(Credentials{Username: "admin"}.Validate()).NotTo(Succeed())
	g.Expect(Credentials{Password: "secret"}.Validate()).NotTo(Succeed())
}
