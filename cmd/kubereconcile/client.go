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

package main

import (
	"fmt"
	"net/url"
	"strings"

	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/client-go/rest"

	"github.com/stefanprodan/kubereconcile/pkg/batch"
	"github.com/stefanprodan/kubereconcile/pkg/transport"
)

// apiTarget holds the API server address and the transport settings of a run.
type apiTarget struct {
	endpoint    string
	insecure    bool
	credentials transport.Credentials
	options     transport.Options
}

// newAPITarget returns the target set by the apply flags. When no endpoint is
// given, the API server and the transport are taken from the kubeconfig context.
func newAPITarget(rcg genericclioptions.RESTClientGetter) (*apiTarget, error) {
	t := &apiTarget{
		endpoint: applyArgs.endpoint,
		insecure: applyArgs.insecure,
		credentials: transport.Credentials{
			Username:    applyArgs.username,
			Password:    applyArgs.password,
			BearerToken: applyArgs.token,
		},
		options: transport.Options{
			UserAgent:             cfg.UserAgent,
			Timeout:               cfg.RequestTimeout.Duration,
			CAFile:                applyArgs.caFile,
			InsecureSkipTLSVerify: applyArgs.insecureSkipTLSVerify,
		},
	}

	if t.endpoint != "" {
		return t, nil
	}

	restConfig, err := newKubeConfig(rcg)
	if err != nil {
		return nil, &batch.ValidationError{
			Field:  "endpoint",
			Reason: fmt.Sprintf("api endpoint is required when no kubeconfig is available: %v", err),
		}
	}

	host, insecure, err := splitHost(restConfig.Host)
	if err != nil {
		return nil, &batch.ValidationError{Field: "endpoint", Reason: err.Error()}
	}
	t.endpoint = host
	t.insecure = insecure

	restConfig.UserAgent = cfg.UserAgent
	rt, err := rest.TransportFor(restConfig)
	if err != nil {
		return nil, fmt.Errorf("kubeconfig transport initialization failed: %w", err)
	}
	t.options.Transport = rt
	t.options.CAFile = ""
	t.options.InsecureSkipTLSVerify = false

	return t, nil
}

func newKubeConfig(rcg genericclioptions.RESTClientGetter) (*rest.Config, error) {
	cfg, err := rcg.ToRESTConfig()
	if err != nil {
		return nil, fmt.Errorf("kubeconfig load failed: %w", err)
	}
	return cfg, nil
}

// splitHost returns the host of the API server URL and
// whether the server is reached over plain HTTP.
func splitHost(server string) (string, bool, error) {
	if !strings.Contains(server, "://") {
		return server, false, nil
	}

	u, err := url.Parse(server)
	if err != nil {
		return "", false, fmt.Errorf("invalid kubeconfig server '%s': %w", server, err)
	}
	if strings.Trim(u.Path, "/") != "" {
		return "", false, fmt.Errorf("kubeconfig server '%s' has a path, only hosts are supported", server)
	}

	return u.Host, u.Scheme == "http", nil
}
