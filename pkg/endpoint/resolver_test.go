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
	"errors"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const testBase = "https://cluster.example.com"

func TestResolve(t *testing.T) {
	g := NewWithT(t)

	r, err := NewResolver(nil)
	g.Expect(err).NotTo(HaveOccurred())

	t.Run("resolves every known kind", func(t *testing.T) {
		for kind, tpl := range DefaultKinds() {
			url, err := r.Resolve(testBase, kind, "apps")
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(url).To(Equal(testBase + strings.ReplaceAll(tpl, NamespacePlaceholder, "apps")))
			g.Expect(url).NotTo(ContainSubstring(NamespacePlaceholder))
		}
	})

	t.Run("matches kind case insensitively", func(t *testing.T) {
		url, err := r.Resolve(testBase, "ServiceAccount", "apps")
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(url).To(Equal(testBase + "/api/v1/namespaces/apps/serviceaccounts"))
	})

	t.Run("defaults the namespace", func(t *testing.T) {
		url, err := r.Resolve(testBase, "pod", "")
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(url).To(Equal(testBase + "/api/v1/namespaces/default/pods"))
	})

	t.Run("ignores the namespace for cluster scoped kinds", func(t *testing.T) {
		url, err := r.Resolve(testBase, "Namespace", "apps")
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(url).To(Equal(testBase + "/api/v1/namespaces"))
	})

	t.Run("fails for unknown kinds", func(t *testing.T) {
		for _, kind := range []string{"bogus", "", "Deployment"} {
			_, err := r.Resolve(testBase, kind, "apps")
			g.Expect(err).To(HaveOccurred())

			var kindErr *UnknownResourceKindError
			g.Expect(errors.As(err, &kindErr)).To(BeTrue())
			g.Expect(kindErr.Kind).To(Equal(strings.ToLower(kind)))
			g.Expect(err.Error()).To(ContainSubstring("invalid resource kind"))
		}
	})
}

func TestResolveObject(t *testing.T) {
	g := NewWithT(t)

	r, err := NewResolver(nil)
	g.Expect(err).NotTo(HaveOccurred())

	t.Run("resolves kind and namespace from the object", func(t *testing.T) {
		obj := &unstructured.Unstructured{}
		obj.SetKind("Secret")
		obj.SetName("token")
		obj.SetNamespace("apps")

		url, err := r.ResolveObject(testBase, obj)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(url).To(Equal(testBase + "/api/v1/namespaces/apps/secrets"))
	})

	t.Run("targets the base URL for opaque objects", func(t *testing.T) {
		obj := &unstructured.Unstructured{Object: map[string]interface{}{
			"kind": "Pod",
			"spec": map[string]interface{}{},
		}}

		url, err := r.ResolveObject(testBase, obj)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(url).To(Equal(testBase))
	})

	t.Run("fails for objects with metadata and no kind", func(t *testing.T) {
		obj := &unstructured.Unstructured{}
		obj.SetName("nameless")

		_, err := r.ResolveObject(testBase, obj)
		g.Expect(err).To(HaveOccurred())
	})
}

func TestNewResolver(t *testing.T) {
	g := NewWithT(t)

	r, err := NewResolver(map[string]string{
		"ConfigMap": "/api/v1/namespaces/{namespace}/configmaps",
	})
	g.Expect(err).NotTo(HaveOccurred())

	url, err := r.Resolve(testBase, "configmap", "apps")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(url).To(Equal(testBase + "/api/v1/namespaces/apps/configmaps"))
	g.Expect(r.Kinds()).To(HaveLen(len(DefaultKinds()) + 1))

	_, err = NewResolver(map[string]string{"configmap": "api/v1/configmaps"})
	g.Expect(err).To(HaveOccurred())

	_, err = NewResolver(map[string]string{" ": "/api/v1/configmaps"})
	g.Expect(err).To(HaveOccurred())
}

func TestKinds(t *testing.T) {
	g := NewWithT(t)

	r, err := NewResolver(nil)
	g.Expect(err).NotTo(HaveOccurred())

	kinds := r.Kinds()
	g.Expect(kinds).To(HaveLen(14))
	g.Expect(kinds[0].Name).To(Equal("binding"))
	g.Expect(kinds[0].Namespaced()).To(BeTrue())

	for _, k := range kinds {
		if k.Name == "node" {
			g.Expect(k.Namespaced()).To(BeFalse())
		}
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		insecure bool
		want     string
		wantErr  bool
	}{
		{name: "https by default", host: "example.com", want: "https://example.com"},
		{name: "http when insecure", host: "localhost:8080", insecure: true, want: "http://localhost:8080"},
		{name: "empty host", host: " ", wantErr: true},
		{name: "host with scheme", host: "https://example.com", wantErr: true},
		{name: "host with path", host: "example.com/api", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			got, err := BaseURL(tt.host, tt.insecure)
			if tt.wantErr {
				g.Expect(err).To(HaveOccurred())
				return
			}
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(got).To(Equal(tt.want))
		})
	}
}
