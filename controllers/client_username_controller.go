package controllers

import (
	"context"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/internal"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

// ClientUsernameReconciler reconciles msgVpns/{vpn}/clientUsernames/{name}.
// The password is never returned by SEMP and is only compared by sending it.
type ClientUsernameReconciler struct {
	sempObject
}

func NewClientUsernameReconciler() *ClientUsernameReconciler {
	return &ClientUsernameReconciler{sempObject: newSempObject("client_username", "clientUsername")}
}

func (r *ClientUsernameReconciler) ValidateFunc(task *topology.Task) error {
	return validateNamedObject(task)
}

func (r *ClientUsernameReconciler) GetFunc(ctx context.Context, s *Session, task *topology.Task) (sempclient.GetResult, error) {
	return r.get(ctx, s, vpnCollection(task, "clientUsernames"), task.Name)
}

func (r *ClientUsernameReconciler) CreateFunc(ctx context.Context, s *Session, task *topology.Task, settings internal.Settings) (interface{}, error) {
	return r.create(ctx, s, vpnCollection(task, "clientUsernames"), task.Name, settings)
}

func (r *ClientUsernameReconciler) UpdateFunc(ctx context.Context, s *Session, task *topology.Task, settings, _, _ internal.Settings) (interface{}, error) {
	return r.update(ctx, s, vpnCollection(task, "clientUsernames"), task.Name, settings)
}

func (r *ClientUsernameReconciler) DeleteFunc(ctx context.Context, s *Session, task *topology.Task, _ internal.Settings) (interface{}, error) {
	return r.delete(ctx, s, vpnCollection(task, "clientUsernames"), task.Name)
}
