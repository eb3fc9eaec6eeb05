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
	"path"

	corev1 "k8s.io/api/core/v1"
)

// NamespacePlaceholder is replaced with the object namespace when resolving a collection URL.
const NamespacePlaceholder = "{namespace}"

// DefaultNamespace is used for objects that don't specify metadata.namespace.
const DefaultNamespace = "default"

// coreKinds holds the core/v1 kinds that support a create call (events excluded).
var coreKinds = map[string]string{
	"binding":               namespaced("bindings"),
	"endpoints":             namespaced("endpoints"),
	"limitrange":            namespaced("limitranges"),
	"namespace":             clusterScoped("namespaces"),
	"node":                  clusterScoped("nodes"),
	"persistentvolume":      clusterScoped("persistentvolumes"),
	"persistentvolumeclaim": namespaced("persistentvolumeclaims"),
	"pod":                   namespaced("pods"),
	"podtemplate":           namespaced("podtemplates"),
	"replicationcontroller": namespaced("replicationcontrollers"),
	"resourcequota":         namespaced("resourcequotas"),
	"secret":                namespaced("secrets"),
	"service":               namespaced("services"),
	"serviceaccount":        namespaced("serviceaccounts"),
}

func clusterScoped(resource string) string {
	return path.Join("/api", corev1.SchemeGroupVersion.Version, resource)
}

func namespaced(resource string) string {
	return path.Join("/api", corev1.SchemeGroupVersion.Version, "namespaces", NamespacePlaceholder, resource)
}

// DefaultKinds returns a copy of the built-in kind to path template table.
func DefaultKinds() map[string]string {
	kinds := make(map[string]string, len(coreKinds))
	for k, v := range coreKinds {
		kinds[k] = v
	}
	return kinds
}
