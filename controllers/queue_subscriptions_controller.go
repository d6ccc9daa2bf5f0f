package controllers

import (
	"context"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/internal"
)

// QueueSubscriptionsReconciler reconciles the topic subscriptions of a queue,
// msgVpns/{vpn}/queues/{queue_name}/subscriptions.
type QueueSubscriptionsReconciler struct {
	sempList
}

type queueSubscriptionsParams struct {
	QueueName string `json:"queue_name"`
}

func NewQueueSubscriptionsReconciler() *QueueSubscriptionsReconciler {
	return &QueueSubscriptionsReconciler{sempList: sempList{module: "queue_subscriptions", keyAttr: "subscriptionTopic"}}
}

func (r *QueueSubscriptionsReconciler) collection(task *topology.Task) ([]string, error) {
	var p queueSubscriptionsParams
	if err := decodeParams(task, &p); err != nil {
		return nil, err
	}
	if err := requireParam("queue_name", p.QueueName); err != nil {
		return nil, err
	}
	return []string{"msgVpns", msgVpn(task), "queues", p.QueueName, "subscriptions"}, nil
}

func (r *QueueSubscriptionsReconciler) ValidateFunc(task *topology.Task) error {
	if err := validateListTask(task); err != nil {
		return err
	}
	_, err := r.collection(task)
	return err
}

func (r *QueueSubscriptionsReconciler) ListFunc(ctx context.Context, s *Session, task *topology.Task) ([]ListEntry, error) {
	collection, err := r.collection(task)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, s, collection)
}

func (r *QueueSubscriptionsReconciler) CreateFunc(ctx context.Context, s *Session, task *topology.Task, key string, settings internal.Settings) (interface{}, error) {
	collection, err := r.collection(task)
	if err != nil {
		return nil, err
	}
	return r.create(ctx, s, collection, key, settings)
}

func (r *QueueSubscriptionsReconciler) DeleteFunc(ctx context.Context, s *Session, task *topology.Task, key string) (interface{}, error) {
	collection, err := r.collection(task)
	if err != nil {
		return nil, err
	}
	return r.delete(ctx, s, collection, key)
}
