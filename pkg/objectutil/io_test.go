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

package objectutil

import (
	"errors"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func TestReadObjects(t *testing.T) {
	t.Run("reads multi-document YAML", func(t *testing.T) {
		g := NewWithT(t)

		objects, err := ReadObjects("test.yaml", strings.NewReader(`---
apiVersion: v1
kind: Namespace
metadata:
  name: test-namespace
  labels:
    env: test
---
---
apiVersion: v1
kind: Pod
metadata:
  name: web
  namespace: apps
spec:
  terminationGracePeriodSeconds: 5
`))
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(objects).To(HaveLen(2))
		g.Expect(objects[0].GetName()).To(Equal("test-namespace"))
		g.Expect(objects[0].GetLabels()).To(HaveKeyWithValue("env", "test"))
		g.Expect(objects[1].GetNamespace()).To(Equal("apps"))

		grace, found, err := unstructured.NestedInt64(objects[1].Object, "spec", "terminationGracePeriodSeconds")
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(found).To(BeTrue())
		g.Expect(grace).To(Equal(int64(5)))

		// unstructured values must be deep copyable
		g.Expect(objects[1].DeepCopy().Object).To(Equal(objects[1].Object))
	})

	t.Run("reads JSON", func(t *testing.T) {
		g := NewWithT(t)

		objects, err := ReadObjects("inline", strings.NewReader(`{"kind":"Namespace","apiVersion":"v1","metadata":{"name":"json"}}`))
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(objects).To(HaveLen(1))
		g.Expect(objects[0].GetName()).To(Equal("json"))
	})

	t.Run("flattens lists", func(t *testing.T) {
		g := NewWithT(t)

		objects, err := ReadObjects("list.yaml", strings.NewReader(`
- kind: Namespace
  metadata:
    name: one
- kind: Namespace
  metadata:
    name: two
---
apiVersion: v1
kind: List
items:
- kind: Namespace
  metadata:
    name: three
`))
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(objects).To(HaveLen(3))
		g.Expect(objects[2].GetName()).To(Equal("three"))
	})

	t.Run("keeps opaque documents", func(t *testing.T) {
		g := NewWithT(t)

		objects, err := ReadObjects("opaque.yaml", strings.NewReader("spec:\n  replicas: 1\n"))
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(objects).To(HaveLen(1))
		g.Expect(objects[0].Object).NotTo(HaveKey("metadata"))
	})

	t.Run("reports the error position", func(t *testing.T) {
		g := NewWithT(t)

		_, err := ReadObjects("broken.yaml", strings.NewReader("kind: Namespace\nmetadata:\n  name: [broken\n"))
		g.Expect(err).To(HaveOccurred())

		var parseErr *DocumentParseError
		g.Expect(errors.As(err, &parseErr)).To(BeTrue())
		g.Expect(parseErr.Source).To(Equal("broken.yaml"))
		g.Expect(parseErr.Line).To(BeNumerically(">", 0))
		g.Expect(err.Error()).To(ContainSubstring("error position"))
	})

	t.Run("rejects scalar documents", func(t *testing.T) {
		g := NewWithT(t)

		_, err := ReadObjects("scalar.yaml", strings.NewReader("---\njust a string\n"))
		g.Expect(err).To(HaveOccurred())

		var parseErr *DocumentParseError
		g.Expect(errors.As(err, &parseErr)).To(BeTrue())
		g.Expect(parseErr.Line).To(Equal(2))
		g.Expect(parseErr.Column).To(Equal(1))
	})
}

func TestObjectsToYAML(t *testing.T) {
	g := NewWithT(t)

	out, err := ObjectsToYAML(map[string]interface{}{"changed": true})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal("changed: true\n"))

	out, err = ObjectsToJSON(map[string]interface{}{"changed": true})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(MatchJSON(`{"changed": true}`))
}
