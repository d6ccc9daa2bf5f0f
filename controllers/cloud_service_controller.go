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

	"k8s.io/apimachinery/pkg/util/validation/field"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/internal"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

const serviceUpdateNotSupported = "Solace Cloud Service already exists. You can't update a Solace Cloud Service. Only option: delete & re-create."

var (
	cloudServiceDefaults = internal.Settings{
		"adminState":  "start",
		"partitionId": "default",
	}
	cloudServiceMandatoryKeys = []string{"msgVpnName", "datacenterId", "serviceClassId", "serviceTypeId"}
)

// CloudServiceReconciler creates and deletes Solace Cloud services. A service
// is looked up by name; with state absent a service_id param takes
// precedence.
type CloudServiceReconciler struct{}

type cloudServiceParams struct {
	ServiceID string `json:"service_id"`
}

func NewCloudServiceReconciler() *CloudServiceReconciler {
	return &CloudServiceReconciler{}
}

func (r *CloudServiceReconciler) Kind() ObjectKind {
	return ObjectKind{
		Module:            "cloud_service",
		DesiredTarget:     internal.CloudTarget,
		CurrentTarget:     internal.CloudTarget,
		Whitelist:         internal.NewWhitelist(),
		RejectUnknownKeys: true,
	}
}

func (r *CloudServiceReconciler) params(task *topology.Task) (cloudServiceParams, error) {
	var p cloudServiceParams
	err := decodeParams(task, &p)
	return p, err
}

func (r *CloudServiceReconciler) ValidateFunc(task *topology.Task) error {
	if err := task.ValidateObjectTask(false); err != nil {
		return newValidationError(err)
	}
	p, err := r.params(task)
	if err != nil {
		return err
	}
	path := field.NewPath("task")
	switch {
	case task.DesiredState() == topology.StatePresent && task.Name == "":
		return newValidationError(field.ErrorList{field.Required(path.Child("name"), "mandatory for state present")}.ToAggregate())
	case task.DesiredState() == topology.StateAbsent && task.Name == "" && p.ServiceID == "":
		return newValidationError(field.ErrorList{field.Required(path.Child("name"),
			"one of name or params.service_id is required for state absent")}.ToAggregate())
	}
	return nil
}

func (r *CloudServiceReconciler) GetFunc(ctx context.Context, s *Session, task *topology.Task) (sempclient.GetResult, error) {
	c, err := s.Cloud()
	if err != nil {
		return sempclient.GetResult{}, err
	}
	p, err := r.params(task)
	if err != nil {
		return sempclient.GetResult{}, err
	}
	if task.DesiredState() == topology.StateAbsent && p.ServiceID != "" {
		return c.GetService(ctx, p.ServiceID)
	}
	return c.FindServiceByName(ctx, task.Name)
}

func (r *CloudServiceReconciler) CreateFunc(ctx context.Context, s *Session, task *topology.Task, settings internal.Settings) (interface{}, error) {
	if len(settings) == 0 {
		return nil, newValidationError(fmt.Errorf("create service: mandatory 'settings' missing or empty"))
	}
	mandatory := internal.Settings{"name": task.Name}
	var missing []string
	for _, k := range cloudServiceMandatoryKeys {
		v, ok := settings[k]
		if !ok || v == nil {
			missing = append(missing, k)
			continue
		}
		mandatory[k] = v
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, newValidationError(fmt.Errorf("create service: mandatory keys missing in 'settings': %v", missing))
	}
	c, err := s.Cloud()
	if err != nil {
		return nil, err
	}
	return c.CreateService(ctx, internal.MergeSettings(cloudServiceDefaults, mandatory, settings))
}

func (r *CloudServiceReconciler) UpdateFunc(_ context.Context, _ *Session, task *topology.Task, _, _, _ internal.Settings) (interface{}, error) {
	return nil, &UsageError{Module: r.Kind().Module, State: task.DesiredState(), Msg: serviceUpdateNotSupported}
}

func (r *CloudServiceReconciler) DeleteFunc(ctx context.Context, s *Session, _ *topology.Task, current internal.Settings) (interface{}, error) {
	serviceID, _ := current["serviceId"].(string)
	if serviceID == "" {
		return nil, &InternalError{Msg: fmt.Sprintf("service to delete has no serviceId: %v", current)}
	}
	c, err := s.Cloud()
	if err != nil {
		return nil, err
	}
	return c.DeleteService(ctx, serviceID)
}
