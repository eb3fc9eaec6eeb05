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
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/stefanprodan/kubereconcile/internal/apitest"
	"github.com/stefanprodan/kubereconcile/pkg/transport"
)

var (
	apiServer  *apitest.Server
	reconciler *Reconciler
)

func TestMain(m *testing.M) {
	apiServer = apitest.NewServer()

	httpClient, err := transport.NewHTTP(transport.Options{})
	if err != nil {
		panic(err)
	}
	reconciler = New(httpClient)

	code := m.Run()

	apiServer.Close()

	os.Exit(code)
}

var nextNameId int64

func generateName(prefix string) string {
	id := atomic.AddInt64(&nextNameId, 1)
	return fmt.Sprintf("%s-%d", prefix, id)
}

func toUnstructured(obj runtime.Object) *unstructured.Unstructured {
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		panic(err)
	}
	return &unstructured.Unstructured{Object: content}
}

func newNamespace(name string) *unstructured.Unstructured {
	return toUnstructured(&corev1.Namespace{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Namespace"},
		ObjectMeta: metav1.ObjectMeta{Name: name},
	})
}

func newConfigMap(name string, data map[string]string) *unstructured.Unstructured {
	return toUnstructured(&corev1.ConfigMap{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "ConfigMap"},
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "default"},
		Data:       data,
	})
}

func namespacesURL() string {
	return apiServer.URL + "/api/v1/namespaces"
}

func configMapsURL() string {
	return apiServer.URL + "/api/v1/namespaces/default/configmaps"
}
