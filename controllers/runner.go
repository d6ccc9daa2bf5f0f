/*
PubSub+ Topology Reconciler
Copyright 2024 The PubSub+ Topology Reconciler Authors

This product is licensed to you under the Mozilla Public License 2.0 license (the "License").  You may not use this product except in compliance with the Mozilla 2.0 License.

This product may include a number of subcomponents with separate copyright notices and license terms. Your use of these subcomponents is subject to the terms and conditions of the subcomponent's license, as noted in the LICENSE file.
*/

package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/validation/field"
	ctrl "sigs.k8s.io/controller-runtime"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/internal"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

// ErrTaskFailed is returned by Run when a task failed. The failed task's
// result holds the details.
var ErrTaskFailed = errors.New("task failed")

// Runner executes the tasks of a task file in order and stops at the first
// failure.
type Runner struct {
	Registry Registry
	// Resolves credentials of connections referencing Vault or a Secret.
	// When nil the connection username and password are used as is.
	Credentials *internal.BrokerCredentialsProvider
	Options     sempclient.Options
	Whitelist   internal.Whitelist

	ClientFactory      sempclient.Factory
	CloudClientFactory sempclient.CloudFactory
}

// Run returns the results of every task run, up to and including the first
// failed one.
func (r *Runner) Run(ctx context.Context, file *topology.TaskFile) ([]topology.TaskResult, error) {
	runID := uuid.New().String()
	logger := ctrl.LoggerFrom(ctx).WithValues("run", runID)
	ctx = ctrl.LoggerInto(ctx, logger)

	logger.Info("Starting run", "tasks", len(file.Tasks), "checkMode", file.CheckMode)
	start := time.Now()
	results := make([]topology.TaskResult, 0, len(file.Tasks))
	for i := range file.Tasks {
		task := &file.Tasks[i]
		result := r.runTask(ctx, i, file, task)
		results = append(results, topology.TaskResult{Description: task.Description, Kind: task.Kind, Result: result})
		if result.Failed() {
			logger.Info("Stopping run at failed task", "task", i, "kind", task.Kind)
			return results, fmt.Errorf("task %d (%s): %w", i, task.Kind, ErrTaskFailed)
		}
	}
	logger.Info("Finished run", "duration", time.Since(start).String())
	return results, nil
}

func (r *Runner) runTask(ctx context.Context, index int, file *topology.TaskFile, task *topology.Task) (result *topology.Result) {
	logger := ctrl.LoggerFrom(ctx).WithValues("task", index, "kind", task.Kind)
	ctx = ctrl.LoggerInto(sempclient.WithModule(ctx, task.Kind), logger)

	config := task.MergedConnection(file.Connection)
	defer func() {
		if p := recover(); p != nil {
			logger.Error(fmt.Errorf("%v", p), "task panicked")
			result = ErrorResult(config, task.Kind, &InternalError{Msg: fmt.Sprintf("%v", p)}, nil)
		}
	}()

	rec, ok := r.Registry[task.Kind]
	if !ok {
		err := field.ErrorList{field.NotSupported(field.NewPath("task", "kind"), task.Kind, r.Registry.Kinds())}.ToAggregate()
		return ErrorResult(config, task.Kind, newValidationError(err), nil)
	}

	config.Default(IsCloudKind(task.Kind))
	if err := config.Validate(); err != nil {
		return ErrorResult(config, task.Kind, newValidationError(err), nil)
	}
	if r.Credentials != nil {
		resolved, err := r.Credentials.ResolveCredentials(ctx, config)
		if err != nil {
			return ErrorResult(config, task.Kind, newValidationError(fmt.Errorf("unable to resolve credentials: %w", err)), nil)
		}
		config = resolved
	}

	s := &Session{
		Config:             config,
		Options:            r.Options,
		CheckMode:          file.CheckMode,
		Whitelist:          r.Whitelist,
		ClientFactory:      r.ClientFactory,
		CloudClientFactory: r.CloudClientFactory,
	}
	logger.V(1).Info("Reconciling", "state", task.DesiredState(), "name", task.Name, "names", task.Names)
	result, err := rec.Reconcile(ctx, s, task)
	if err != nil {
		logger.Error(err, "task failed")
		return ErrorResult(config, task.Kind, err, result)
	}
	logger.Info("Reconciled", "changed", result.Changed)
	return result
}
