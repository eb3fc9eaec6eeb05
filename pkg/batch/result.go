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

package batch

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/stefanprodan/kubereconcile/pkg/reconciler"
)

// Phase is the processing step reached by an object.
type Phase string

const (
	PendingPhase    Phase = "Pending"
	ResolvedPhase   Phase = "Resolved"
	DispatchedPhase Phase = "Dispatched"
	SucceededPhase  Phase = "Succeeded"
	SoftNoOpPhase   Phase = "SoftNoOp"
	RejectedPhase   Phase = "Rejected"
)

// ItemResult holds the outcome of a single object.
type ItemResult struct {
	// Index is the position of the object in the request.
	Index int
	// Subject is the object ID in the format 'kind/namespace/name'.
	Subject string
	// URL is the collection URL the object was dispatched to.
	URL string
	// Phase is the last step reached.
	Phase Phase
	// Result is set when the reconciliation succeeded.
	Result *reconciler.Result
	// Err is set when the object failed.
	Err error
}

// Result holds the aggregated outcome of a run.
type Result struct {
	// Changed is true if at least one object was changed.
	Changed bool
	// Failed is true if the request was invalid or at least one object failed.
	Failed bool
	// Message describes all the failures.
	Message string
	// Bodies holds the API response of each object, in the request order.
	// The entry is nil for objects that failed without a response.
	Bodies []interface{}
	// Items holds the per object outcome, in the request order.
	Items []ItemResult
	// ChangeSet holds the action taken for each object.
	ChangeSet *reconciler.ChangeSet
}

func newResult() *Result {
	return &Result{
		Bodies:    []interface{}{},
		Items:     []ItemResult{},
		ChangeSet: reconciler.NewChangeSet(),
	}
}

// Errors returns the per object errors in the request order.
func (r *Result) Errors() []error {
	var errs []error
	for _, item := range r.Items {
		if item.Err != nil {
			errs = append(errs, item.Err)
		}
	}
	return errs
}

func (r *Result) add(item ItemResult, body interface{}) {
	r.Items = append(r.Items, item)
	r.Bodies = append(r.Bodies, body)
	if item.Result != nil {
		r.Changed = r.Changed || item.Result.Changed
	}
}

func (r *Result) fail(err error) *Result {
	r.Failed = true
	r.Message = err.Error()
	return r
}

func (r *Result) finish() *Result {
	if agg := utilerrors.NewAggregate(r.Errors()); agg != nil {
		r.fail(agg)
	}
	return r
}
