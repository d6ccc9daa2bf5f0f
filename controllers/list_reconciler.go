/*
PubSub+ Topology Reconciler
Copyright 2024 The PubSub+ Topology Reconciler Authors

This product is licensed to you under the Mozilla Public License 2.0 license (the "License").  You may not use this product except in compliance with the Mozilla 2.0 License.

This product may include a number of subcomponents with separate copyright notices and license terms. Your use of these subcomponents is subject to the terms and conditions of the subcomponent's license, as noted in the LICENSE file.
*/

package controllers

import (
	"context"
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/sets"
	ctrl "sigs.k8s.io/controller-runtime"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/internal"
)

// ListEntry is an existing member of a list, with the settings needed to
// create it again.
type ListEntry struct {
	Key      string
	Settings internal.Settings
}

// ListAdapter maps the operations on the members of a list onto its api.
type ListAdapter interface {
	Module() string
	ValidateFunc(task *topology.Task) error
	// ListFunc returns every existing member, in api order.
	ListFunc(ctx context.Context, s *Session, task *topology.Task) ([]ListEntry, error)
	// KeyFunc turns a declared name into the key it is listed under.
	KeyFunc(task *topology.Task, name string) string
	CreateFunc(ctx context.Context, s *Session, task *topology.Task, key string, settings internal.Settings) (interface{}, error)
	DeleteFunc(ctx context.Context, s *Session, task *topology.Task, key string) (interface{}, error)
}

// ListReconciler makes the members of a list match the declared names. A
// failed create or delete undoes every change made before it.
type ListReconciler struct {
	Adapter ListAdapter
}

func (r *ListReconciler) Module() string {
	return r.Adapter.Module()
}

type listChange struct {
	tag      topology.ItemTag
	key      string
	settings internal.Settings
}

func (r *ListReconciler) Reconcile(ctx context.Context, s *Session, task *topology.Task) (*topology.Result, error) {
	logger := ctrl.LoggerFrom(ctx)

	if err := r.Adapter.ValidateFunc(task); err != nil {
		return nil, err
	}
	state := task.DesiredState()

	entries, err := r.Adapter.ListFunc(ctx, s, task)
	if err != nil {
		return nil, err
	}
	existing := sets.New[string]()
	for _, e := range entries {
		existing.Insert(e.Key)
	}
	logger.V(1).Info("read existing list members", "existing", sets.List(existing))

	var report []topology.ItemResult
	declared, duplicates := dedupe(task, r.Adapter)
	for _, d := range duplicates {
		report = append(report, topology.ItemResult{Tag: topology.ItemDuplicate, Key: d})
	}

	settings := internal.NormalizeSettings(task.Settings, internal.BrokerTarget)
	var planned []listChange
	for _, key := range declared {
		exists := existing.Has(key)
		switch {
		case state == topology.StatePresent && !exists, state == topology.StateExactly && !exists:
			planned = append(planned, listChange{tag: topology.ItemAdded, key: key, settings: settings})
		case state == topology.StatePresent && exists, state == topology.StateExactly && exists:
		case state == topology.StateAbsent && exists:
			planned = append(planned, listChange{tag: topology.ItemDeleted, key: key, settings: settingsOf(entries, key)})
		case state == topology.StateAbsent && !exists:
		default:
			return nil, &InternalError{Msg: fmt.Sprintf("unsupported state / object combination: state=%s, key=%s, existing=%v",
				state, key, sets.List(existing))}
		}
	}
	if state == topology.StateExactly {
		keep := sets.New[string](declared...)
		for _, e := range entries {
			if !keep.Has(e.Key) {
				planned = append(planned, listChange{tag: topology.ItemDeleted, key: e.Key, settings: e.Settings})
			}
		}
	}

	result := topology.NewResult(len(planned) > 0)
	if s.CheckMode {
		for _, c := range planned {
			report = append(report, topology.ItemResult{Tag: c.tag, Key: c.key})
		}
		result.Response = reportOrEmpty(report)
		return result, nil
	}

	var done []listChange
	for _, c := range planned {
		if err := r.apply(ctx, s, task, c); err != nil {
			logger.Error(err, "list change failed, rolling back", "tag", c.tag, "key", c.key, "applied", len(done))
			report = append(report, topology.ItemResult{Tag: topology.ItemError, Key: c.key, Detail: err.Error()})
			report = append(report, r.rollback(ctx, s, task, done)...)
			result.RC = topology.RCFailure
			result.Changed = len(done) > 0
			result.Response = reportOrEmpty(report)
			return result, err
		}
		done = append(done, c)
		report = append(report, topology.ItemResult{Tag: c.tag, Key: c.key})
	}
	result.Response = reportOrEmpty(report)
	return result, nil
}

func (r *ListReconciler) apply(ctx context.Context, s *Session, task *topology.Task, c listChange) error {
	var err error
	switch c.tag {
	case topology.ItemAdded:
		_, err = r.Adapter.CreateFunc(ctx, s, task, c.key, c.settings)
	case topology.ItemDeleted:
		_, err = r.Adapter.DeleteFunc(ctx, s, task, c.key)
	default:
		err = &InternalError{Msg: fmt.Sprintf("unexpected list change %q", c.tag)}
	}
	return err
}

// rollback undoes done, most recent change first. Failures are reported and
// not retried.
func (r *ListReconciler) rollback(ctx context.Context, s *Session, task *topology.Task, done []listChange) []topology.ItemResult {
	logger := ctrl.LoggerFrom(ctx)
	var (
		report []topology.ItemResult
		errs   []error
	)
	for i := len(done) - 1; i >= 0; i-- {
		c := done[i]
		undo := listChange{key: c.key, settings: c.settings, tag: topology.ItemAdded}
		if c.tag == topology.ItemAdded {
			undo.tag = topology.ItemDeleted
		}
		if err := r.apply(ctx, s, task, undo); err != nil {
			errs = append(errs, fmt.Errorf("rollback of %s %s: %w", c.tag, c.key, err))
			report = append(report, topology.ItemResult{Tag: topology.ItemError, Key: c.key,
				Detail: fmt.Sprintf("rollback failed: %s", err)})
		}
	}
	if agg := utilerrors.NewAggregate(errs); agg != nil {
		logger.Error(agg, "rollback incomplete")
	}
	return report
}

// dedupe maps declared names to keys, first occurrence first. Every key
// declared more than once is returned once in duplicates.
func dedupe(task *topology.Task, a ListAdapter) (keys, duplicates []string) {
	seen := sets.New[string]()
	reported := sets.New[string]()
	for _, name := range task.Names {
		key := a.KeyFunc(task, name)
		if seen.Has(key) {
			if !reported.Has(key) {
				duplicates = append(duplicates, key)
				reported.Insert(key)
			}
			continue
		}
		seen.Insert(key)
		keys = append(keys, key)
	}
	return keys, duplicates
}

func settingsOf(entries []ListEntry, key string) internal.Settings {
	for _, e := range entries {
		if e.Key == key {
			return e.Settings
		}
	}
	return nil
}

func reportOrEmpty(report []topology.ItemResult) []topology.ItemResult {
	if report == nil {
		return []topology.ItemResult{}
	}
	return report
}
