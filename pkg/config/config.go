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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/stefanprodan/kubereconcile/pkg/endpoint"
	"github.com/stefanprodan/kubereconcile/pkg/transport"
)

const (
	ConfigKind       = "Config"
	ConfigApiVersion = "kubereconcile.dev/v1"

	defaultRequestTimeout = 30 * time.Second
)

type Config struct {
	metav1.TypeMeta `json:",inline"`

	// UserAgent sets the User-Agent header of the API requests.
	UserAgent string `json:"userAgent,omitempty"`

	// RequestTimeout limits the duration of a single API request.
	RequestTimeout *metav1.Duration `json:"requestTimeout,omitempty"`

	// Kinds holds additional resource kinds and their collection path,
	// e.g. 'configmap: /api/v1/namespaces/{namespace}/configmaps'.
	Kinds map[string]string `json:"kinds,omitempty"`
}

// NewConfig returns a config with the default user agent and request timeout.
func NewConfig() *Config {
	return &Config{
		TypeMeta: metav1.TypeMeta{
			Kind:       ConfigKind,
			APIVersion: ConfigApiVersion,
		},
		UserAgent:      transport.DefaultUserAgent,
		RequestTimeout: &metav1.Duration{Duration: defaultRequestTimeout},
		Kinds:          map[string]string{},
	}
}

// Resolver returns an endpoint resolver for the built-in and the configured kinds.
func (c *Config) Resolver() (*endpoint.Resolver, error) {
	return endpoint.NewResolver(c.Kinds)
}

// DefaultConfigPath returns '$HOME/.kubereconcile/config'
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".kubereconcile/config"), nil
}

// Read loads the config from the specified path,
// if the config file is not found, a default is returned.
func Read(configPath string) (*Config, error) {
	if configPath == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("$HOME dir can't be determined, error: %w", err)
		}
		configPath = p
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return NewConfig(), nil
	}

	cfgData, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(cfgData, cfg); err != nil {
		return nil, err
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = transport.DefaultUserAgent
	}

	if cfg.RequestTimeout == nil {
		cfg.RequestTimeout = &metav1.Duration{Duration: defaultRequestTimeout}
	}

	if cfg.RequestTimeout.Duration < 0 {
		return nil, fmt.Errorf("the request timeout can't be negative")
	}

	if _, err := cfg.Resolver(); err != nil {
		return nil, fmt.Errorf("invalid kinds: %w", err)
	}

	return cfg, nil
}

// Write saves the config at the given path, if no path is specified
// it will create or override '$HOME/.kubereconcile/config'.
func (c *Config) Write(configPath string) error {
	if configPath == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		configPath = p
	}

	if err := os.MkdirAll(filepath.Dir(configPath), os.FileMode(0755)); err != nil {
		return err
	}

	cfgData, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.WriteFile(configPath, cfgData, os.FileMode(0666)); err != nil {
		return err
	}

	return nil
}
