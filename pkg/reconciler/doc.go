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

// Package reconciler drives a single object to its desired state.
//
// The Reconciler performs the following actions:
// - present: creates the object, if it already exists the in-cluster object is fetched and reported unchanged
// - absent: deletes the object, if it's not found the object is reported unchanged
// - replace: replaces the object, on conflict the in-cluster object is fetched and reported unchanged
// - update: patches the object using a strategic merge, on conflict the in-cluster object is fetched and reported unchanged
//
// Any other API error is returned as a RemoteRejectedError.
package reconciler
