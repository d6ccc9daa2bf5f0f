package controllers

import (
	"context"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/internal"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

// QueueReconciler reconciles a queue, msgVpns/{vpn}/queues/{name}.
type QueueReconciler struct {
	sempObject
}

func NewQueueReconciler() *QueueReconciler {
	return &QueueReconciler{sempObject: newSempObject("queue", "queueName")}
}

func (r *QueueReconciler) ValidateFunc(task *topology.Task) error {
	return validateNamedObject(task)
}

func (r *QueueReconciler) GetFunc(ctx context.Context, s *Session, task *topology.Task) (sempclient.GetResult, error) {
	return r.get(ctx, s, vpnCollection(task, "queues"), task.Name)
}

func (r *QueueReconciler) CreateFunc(ctx context.Context, s *Session, task *topology.Task, settings internal.Settings) (interface{}, error) {
	return r.create(ctx, s, vpnCollection(task, "queues"), task.Name, settings)
}

// UpdateFunc sends all settings, not only the delta, so that attributes
// which must be set together arrive together.
func (r *QueueReconciler) UpdateFunc(ctx context.Context, s *Session, task *topology.Task, settings, _, _ internal.Settings) (interface{}, error) {
	return r.update(ctx, s, vpnCollection(task, "queues"), task.Name, settings)
}

func (r *QueueReconciler) DeleteFunc(ctx context.Context, s *Session, task *topology.Task, _ internal.Settings) (interface{}, error) {
	return r.delete(ctx, s, vpnCollection(task, "queues"), task.Name)
}
