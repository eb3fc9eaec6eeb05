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

// Package apitest provides an in-memory cluster API for tests.
//
// Objects are stored by URL path. A POST to a collection path stores the object under
// '<collection>/<metadata.name>', all the other verbs address the object path directly.
// PUT and PATCH reply with a conflict when the body carries a stale resourceVersion.
package apitest

import (
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"strings"
	"sync"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	utiljson "k8s.io/apimachinery/pkg/util/json"
)

// Server is a fake cluster API backed by a map.
type Server struct {
	*httptest.Server

	// Token, when set, is the only accepted bearer token.
	Token string
	// Username and Password, when set, are the only accepted basic auth credentials.
	Username string
	Password string

	mu       sync.Mutex
	objects  map[string]map[string]interface{}
	faults   map[string]int
	requests []string
	version  int
}

// NewServer starts a fake API server, callers must Close it.
func NewServer() *Server {
	s := &Server{
		objects: make(map[string]map[string]interface{}),
		faults:  make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	return s
}

// NewTLSServer starts a fake API server over HTTPS, callers must Close it.
// Clients must trust the certificate returned by CAData.
func NewTLSServer() *Server {
	s := &Server{
		objects: make(map[string]map[string]interface{}),
		faults:  make(map[string]int),
	}
	s.Server = httptest.NewTLSServer(http.HandlerFunc(s.serveHTTP))
	return s
}

// Host returns the server address without scheme.
func (s *Server) Host() string {
	return strings.TrimPrefix(strings.TrimPrefix(s.URL, "http://"), "https://")
}

// CAData returns the PEM encoded server certificate, nil for plain HTTP servers.
func (s *Server) CAData() []byte {
	cert := s.Certificate()
	if cert == nil {
		return nil
	}
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
}

// Seed stores the object at the given path.
func (s *Server) Seed(objectPath string, object map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(objectPath, object)
}

// Get returns the object stored at the given path.
func (s *Server) Get(objectPath string) (*unstructured.Unstructured, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[objectPath]
	if !ok {
		return nil, false
	}
	return &unstructured.Unstructured{Object: copyMap(obj)}, true
}

// Fail makes every request with the given method and path return the status code.
func (s *Server) Fail(method, requestPath string, statusCode int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+requestPath] = statusCode
}

// Requests returns the received requests in the format 'METHOD path'.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Reset clears the request log.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reqPath := path.Clean("/" + r.URL.Path)
	s.requests = append(s.requests, r.Method+" "+reqPath)

	if !s.authorized(r) {
		writeStatus(w, apierrors.NewUnauthorized("Unauthorized"))
		return
	}

	if code, ok := s.faults[r.Method+" "+reqPath]; ok {
		writeStatus(w, apierrors.NewGenericServerResponse(code, strings.ToLower(r.Method), resourceOf(reqPath), "", "injected fault", 0, false))
		return
	}

	var body map[string]interface{}
	if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
		data, err := io.ReadAll(r.Body)
		if err == nil {
			err = utiljson.Unmarshal(data, &body)
		}
		if err != nil || body == nil {
			writeStatus(w, apierrors.NewBadRequest(fmt.Sprintf("invalid body: %v", err)))
			return
		}
	}

	switch r.Method {
	case http.MethodPost:
		s.create(w, reqPath, body)
	case http.MethodGet:
		s.get(w, reqPath)
	case http.MethodPut:
		s.replace(w, reqPath, body)
	case http.MethodPatch:
		if ct := r.Header.Get("Content-Type"); ct != "application/strategic-merge-patch+json" {
			writeStatus(w, apierrors.NewGenericServerResponse(http.StatusUnsupportedMediaType, "patch", resourceOf(reqPath), "", "unsupported patch type "+ct, 0, false))
			return
		}
		s.patch(w, reqPath, body)
	case http.MethodDelete:
		s.delete(w, reqPath)
	default:
		writeStatus(w, apierrors.NewMethodNotSupported(resourceOf(reqPath), r.Method))
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.Token == "" && s.Username == "" {
		return true
	}
	if s.Token != "" && r.Header.Get("Authorization") == "Bearer "+s.Token {
		return true
	}
	if s.Username != "" {
		u, p, ok := r.BasicAuth()
		return ok && u == s.Username && p == s.Password
	}
	return false
}

func (s *Server) create(w http.ResponseWriter, collection string, body map[string]interface{}) {
	obj := unstructured.Unstructured{Object: body}
	name := obj.GetName()
	if name == "" {
		writeStatus(w, apierrors.NewBadRequest("metadata.name is required"))
		return
	}

	objectPath := path.Join(collection, name)
	if _, ok := s.objects[objectPath]; ok {
		writeStatus(w, apierrors.NewAlreadyExists(resourceOf(collection), name))
		return
	}

	writeObject(w, http.StatusCreated, s.store(objectPath, body))
}

func (s *Server) get(w http.ResponseWriter, objectPath string) {
	obj, ok := s.objects[objectPath]
	if !ok {
		writeStatus(w, apierrors.NewNotFound(resourceOf(path.Dir(objectPath)), path.Base(objectPath)))
		return
	}
	writeObject(w, http.StatusOK, obj)
}

func (s *Server) replace(w http.ResponseWriter, objectPath string, body map[string]interface{}) {
	existing, ok := s.objects[objectPath]
	if !ok {
		writeStatus(w, apierrors.NewNotFound(resourceOf(path.Dir(objectPath)), path.Base(objectPath)))
		return
	}
	if s.stale(existing, body) {
		writeStatus(w, apierrors.NewConflict(resourceOf(path.Dir(objectPath)), path.Base(objectPath),
			fmt.Errorf("the object has been modified")))
		return
	}
	writeObject(w, http.StatusOK, s.store(objectPath, body))
}

func (s *Server) patch(w http.ResponseWriter, objectPath string, body map[string]interface{}) {
	existing, ok := s.objects[objectPath]
	if !ok {
		writeStatus(w, apierrors.NewNotFound(resourceOf(path.Dir(objectPath)), path.Base(objectPath)))
		return
	}
	if s.stale(existing, body) {
		writeStatus(w, apierrors.NewConflict(resourceOf(path.Dir(objectPath)), path.Base(objectPath),
			fmt.Errorf("the object has been modified")))
		return
	}
	writeObject(w, http.StatusOK, s.store(objectPath, merge(copyMap(existing), body)))
}

func (s *Server) delete(w http.ResponseWriter, objectPath string) {
	if _, ok := s.objects[objectPath]; !ok {
		writeStatus(w, apierrors.NewNotFound(resourceOf(path.Dir(objectPath)), path.Base(objectPath)))
		return
	}
	delete(s.objects, objectPath)

	status := metav1.Status{
		TypeMeta: metav1.TypeMeta{Kind: "Status", APIVersion: "v1"},
		Status:   metav1.StatusSuccess,
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) stale(existing, body map[string]interface{}) bool {
	rv := (&unstructured.Unstructured{Object: body}).GetResourceVersion()
	return rv != "" && rv != (&unstructured.Unstructured{Object: existing}).GetResourceVersion()
}

// store sets the server managed metadata fields and saves the object.
func (s *Server) store(objectPath string, body map[string]interface{}) map[string]interface{} {
	s.version++
	obj := &unstructured.Unstructured{Object: copyMap(body)}
	if existing, ok := s.objects[objectPath]; ok {
		obj.SetUID((&unstructured.Unstructured{Object: existing}).GetUID())
	} else {
		obj.SetUID(types.UID(fmt.Sprintf("uid-%d", s.version)))
	}
	obj.SetResourceVersion(strconv.Itoa(s.version))
	obj.SetSelfLink(objectPath)
	s.objects[objectPath] = obj.Object
	return copyMap(obj.Object)
}

func resourceOf(collection string) schema.GroupResource {
	return schema.GroupResource{Resource: path.Base(collection)}
}

func writeStatus(w http.ResponseWriter, err *apierrors.StatusError) {
	status := err.ErrStatus
	status.TypeMeta = metav1.TypeMeta{Kind: "Status", APIVersion: "v1"}
	writeJSON(w, int(status.Code), status)
}

func writeObject(w http.ResponseWriter, code int, obj map[string]interface{}) {
	writeJSON(w, code, obj)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// merge overlays the patch onto the target, maps are merged recursively
// and null values remove the key.
func merge(target, patch map[string]interface{}) map[string]interface{} {
	for k, v := range patch {
		if v == nil {
			delete(target, k)
			continue
		}
		pm, ok := v.(map[string]interface{})
		if !ok {
			target[k] = v
			continue
		}
		tm, ok := target[k].(map[string]interface{})
		if !ok {
			tm = map[string]interface{}{}
		}
		target[k] = merge(tm, pm)
	}
	return target
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	return runtime.DeepCopyJSON(m)
}
