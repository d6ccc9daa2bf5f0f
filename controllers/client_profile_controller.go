package controllers

import (
	"context"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/internal"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

// ClientProfileReconciler reconciles a client profile of a self-hosted
// broker. Client profiles of Solace Cloud services are handled by
// CloudClientProfileReconciler.
type ClientProfileReconciler struct {
	sempObject
}

func NewClientProfileReconciler() *ClientProfileReconciler {
	return &ClientProfileReconciler{sempObject: newSempObject("client_profile", "clientProfileName")}
}

func (r *ClientProfileReconciler) ValidateFunc(task *topology.Task) error {
	return validateNamedObject(task)
}

func (r *ClientProfileReconciler) GetFunc(ctx context.Context, s *Session, task *topology.Task) (sempclient.GetResult, error) {
	return r.get(ctx, s, vpnCollection(task, "clientProfiles"), task.Name)
}

func (r *ClientProfileReconciler) CreateFunc(ctx context.Context, s *Session, task *topology.Task, settings internal.Settings) (interface{}, error) {
	return r.create(ctx, s, vpnCollection(task, "clientProfiles"), task.Name, settings)
}

func (r *ClientProfileReconciler) UpdateFunc(ctx context.Context, s *Session, task *topology.Task, settings, _, _ internal.Settings) (interface{}, error) {
	return r.update(ctx, s, vpnCollection(task, "clientProfiles"), task.Name, settings)
}

func (r *ClientProfileReconciler) DeleteFunc(ctx context.Context, s *Session, task *topology.Task, _ internal.Settings) (interface{}, error) {
	return r.delete(ctx, s, vpnCollection(task, "clientProfiles"), task.Name)
}
