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
	"strings"
)

// State is the desired state of an object.
type State string

const (
	// Present creates the object if it doesn't exist.
	Present State = "present"
	// Absent deletes the object if it exists.
	Absent State = "absent"
	// Replace overwrites the in-cluster object.
	Replace State = "replace"
	// Update merges the object into the in-cluster object.
	Update State = "update"
)

// States returns all the supported states.
func States() []State {
	return []State{Present, Absent, Replace, Update}
}

// ParseState returns the State matching the given string.
func ParseState(s string) (State, error) {
	for _, state := range States() {
		if strings.EqualFold(s, string(state)) {
			return state, nil
		}
	}
	return "", fmt.Errorf("state '%s' is not supported, must be one of: %s", s, strings.Join(stateNames(), ", "))
}

func stateNames() []string {
	var names []string
	for _, state := range States() {
		names = append(names, string(state))
	}
	return names
}

// verb returns the operation name used in error messages.
func (s State) verb() string {
	switch s {
	case Present:
		return "create"
	case Absent:
		return "remove"
	default:
		return string(s)
	}
}
