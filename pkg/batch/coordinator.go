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

// Package batch reconciles a list of objects and aggregates the outcome.
//
// Objects are processed one at a time in the request order. A failing object
// is recorded and the remaining objects are still processed, the run result
// is failed if any object failed.
package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/stefanprodan/kubereconcile/pkg/endpoint"
	"github.com/stefanprodan/kubereconcile/pkg/objectutil"
	"github.com/stefanprodan/kubereconcile/pkg/reconciler"
)

// Coordinator runs the reconciliation of object batches.
type Coordinator struct {
	resolver   *endpoint.Resolver
	reconciler *reconciler.Reconciler
	log        logr.Logger
}

// NewCoordinator returns a Coordinator that resolves the object URLs with the
// given resolver and reconciles the objects with the given reconciler.
func NewCoordinator(resolver *endpoint.Resolver, r *reconciler.Reconciler, log logr.Logger) *Coordinator {
	return &Coordinator{
		resolver:   resolver,
		reconciler: r,
		log:        log,
	}
}

// Run validates the request and reconciles its objects.
// Validation failures are returned before any API call is made.
func (c *Coordinator) Run(ctx context.Context, req *Request) *Result {
	result := newResult()

	if err := req.Validate(); err != nil {
		c.log.Error(err, "request validation failed")
		return result.fail(err)
	}

	state, _ := reconciler.ParseState(req.State)

	base, err := endpoint.BaseURL(req.Endpoint, req.Insecure)
	if err != nil {
		verr := &ValidationError{Field: "endpoint", Reason: err.Error()}
		c.log.Error(verr, "request validation failed")
		return result.fail(verr)
	}

	for i, object := range req.Objects {
		item, body := c.reconcile(ctx, base, state, req, i, object)
		result.add(item, body)

		if item.Err != nil {
			result.ChangeSet.Add(reconciler.FailedEntry(object))
		} else {
			result.ChangeSet.Add(item.Result.Entry)
		}
	}

	return result.finish()
}

func (c *Coordinator) reconcile(ctx context.Context, base string, state reconciler.State, req *Request,
	index int, object *unstructured.Unstructured) (ItemResult, interface{}) {
	item := ItemResult{
		Index:   index,
		Subject: objectutil.FmtUnstructured(object),
		Phase:   PendingPhase,
	}
	log := c.log.WithValues("subject", item.Subject, "state", string(state))

	fail := func(err error) (ItemResult, interface{}) {
		item.Err = fmt.Errorf("%s: %w", item.Subject, err)
		log.Error(err, "reconciliation failed", "phase", string(item.Phase))
		item.Phase = RejectedPhase

		// keep the API response of rejected calls
		var rejected *reconciler.RemoteRejectedError
		if errors.As(err, &rejected) {
			return item, rejected.Body
		}
		return item, nil
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	u, err := c.resolver.ResolveObject(base, object)
	if err != nil {
		return fail(err)
	}
	item.URL = u
	item.Phase = ResolvedPhase
	log.V(1).Info("endpoint resolved", "url", u)

	item.Phase = DispatchedPhase
	res, err := c.reconciler.Reconcile(ctx, object, state, u, req.Credentials)
	if err != nil {
		return fail(err)
	}

	item.Result = res
	if res.Changed {
		item.Phase = SucceededPhase
	} else {
		item.Phase = SoftNoOpPhase
	}
	log.Info(res.Entry.Action, "phase", string(item.Phase))

	return item, res.Body()
}
