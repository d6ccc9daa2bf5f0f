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
	"sort"

	ctrl "sigs.k8s.io/controller-runtime"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/internal"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

// TaskReconciler reconciles one task kind.
type TaskReconciler interface {
	Module() string
	Reconcile(ctx context.Context, s *Session, task *topology.Task) (*topology.Result, error)
}

// ObjectKind describes how settings of a kind are compared.
type ObjectKind struct {
	Module string
	// Representation desired and current settings are brought into before
	// they are compared.
	DesiredTarget internal.Target
	CurrentTarget internal.Target
	// Keys never returned on read. They are sent but not compared.
	Whitelist internal.Whitelist
	// Fail when settings hold a key the existing object does not have.
	RejectUnknownKeys bool
}

// ObjectAdapter maps the operations on a single object of one kind onto its
// api. settings passed to CreateFunc and UpdateFunc are normalized; current
// is the object as read by GetFunc.
type ObjectAdapter interface {
	Kind() ObjectKind
	ValidateFunc(task *topology.Task) error
	GetFunc(ctx context.Context, s *Session, task *topology.Task) (sempclient.GetResult, error)
	CreateFunc(ctx context.Context, s *Session, task *topology.Task, settings internal.Settings) (interface{}, error)
	UpdateFunc(ctx context.Context, s *Session, task *topology.Task, settings, delta, current internal.Settings) (interface{}, error)
	DeleteFunc(ctx context.Context, s *Session, task *topology.Task, current internal.Settings) (interface{}, error)
}

// ObjectReconciler drives an ObjectAdapter through the present/absent state
// machine.
type ObjectReconciler struct {
	Adapter ObjectAdapter
}

func (r *ObjectReconciler) Module() string {
	return r.Adapter.Kind().Module
}

func (r *ObjectReconciler) Reconcile(ctx context.Context, s *Session, task *topology.Task) (*topology.Result, error) {
	logger := ctrl.LoggerFrom(ctx)
	kind := r.Adapter.Kind()
	whitelist := kind.Whitelist.Union(s.Whitelist)

	if err := r.Adapter.ValidateFunc(task); err != nil {
		return nil, err
	}
	state := task.DesiredState()
	desired := internal.NormalizeSettings(task.Settings, kind.DesiredTarget)

	found, err := r.Adapter.GetFunc(ctx, s, task)
	if err != nil {
		return nil, err
	}
	logger.V(1).Info("read current object", "found", found.Found, "current", found.Settings)

	switch {
	case state == topology.StateAbsent && !found.Found:
		return topology.NewResult(false), nil

	case state == topology.StateAbsent && found.Found:
		result := topology.NewResult(true)
		if s.CheckMode {
			return result, nil
		}
		logger.Info("Deleting")
		if result.Response, err = r.Adapter.DeleteFunc(ctx, s, task, found.Settings); err != nil {
			return nil, err
		}
		return result, nil

	case state == topology.StatePresent && !found.Found:
		result := topology.NewResult(true)
		if s.CheckMode {
			return result, nil
		}
		logger.Info("Creating", "settings", desired)
		if desired == nil {
			desired = internal.Settings{}
		}
		if result.Response, err = r.Adapter.CreateFunc(ctx, s, task, desired); err != nil {
			return nil, err
		}
		return result, nil

	case state == topology.StatePresent && found.Found:
		current := internal.NormalizeSettings(found.Settings, kind.CurrentTarget)
		if kind.RejectUnknownKeys {
			if err := unknownKeys(desired, current, whitelist); err != nil {
				return nil, err
			}
		}
		delta := internal.DeepDiff(whitelist.Strip(desired), current)
		if len(delta) == 0 {
			result := topology.NewResult(false)
			result.Response = found.Settings
			return result, nil
		}
		result := topology.NewResult(true)
		result.Delta = delta
		if s.CheckMode {
			return result, nil
		}
		logger.Info("Updating", "delta", delta)
		if result.Response, err = r.Adapter.UpdateFunc(ctx, s, task, desired, delta, found.Settings); err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, &InternalError{Msg: fmt.Sprintf("unhandled state %q for kind %s", state, kind.Module)}
}

func unknownKeys(desired, current internal.Settings, whitelist internal.Whitelist) error {
	var invalid []string
	for k := range desired {
		if _, ok := current[k]; !ok && !whitelist.Has(k) {
			invalid = append(invalid, k)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	valid := make([]string, 0, len(current))
	for k := range current {
		valid = append(valid, k)
	}
	valid = append(valid, whitelist.Keys()...)
	sort.Strings(invalid)
	sort.Strings(valid)
	return &InvalidKeysError{Invalid: invalid, Valid: valid}
}
