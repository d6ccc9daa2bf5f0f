package controllers

import (
	"context"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation/field"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/internal"
)

const defaultBridgeVirtualRouter = "auto"

var bridgeVirtualRouters = []string{"primary", "backup", "auto"}

// BridgeRemoteSubscriptionsReconciler reconciles the remote subscriptions of
// a bridge, msgVpns/{vpn}/bridges/{bridge_name},{bridge_virtual_router}/remoteSubscriptions.
type BridgeRemoteSubscriptionsReconciler struct {
	sempList
}

type bridgeRemoteSubscriptionsParams struct {
	BridgeName          string `json:"bridge_name"`
	BridgeVirtualRouter string `json:"bridge_virtual_router"`
}

func NewBridgeRemoteSubscriptionsReconciler() *BridgeRemoteSubscriptionsReconciler {
	return &BridgeRemoteSubscriptionsReconciler{sempList: sempList{module: "bridge_remote_subscriptions", keyAttr: "remoteSubscriptionTopic"}}
}

func (r *BridgeRemoteSubscriptionsReconciler) collection(task *topology.Task) ([]string, error) {
	var p bridgeRemoteSubscriptionsParams
	if err := decodeParams(task, &p); err != nil {
		return nil, err
	}
	if err := requireParam("bridge_name", p.BridgeName); err != nil {
		return nil, err
	}
	if p.BridgeVirtualRouter == "" {
		p.BridgeVirtualRouter = defaultBridgeVirtualRouter
	}
	valid := false
	for _, vr := range bridgeVirtualRouters {
		valid = valid || vr == p.BridgeVirtualRouter
	}
	if !valid {
		return nil, newValidationError(field.ErrorList{field.NotSupported(
			field.NewPath("task", "params", "bridge_virtual_router"), p.BridgeVirtualRouter, bridgeVirtualRouters)}.ToAggregate())
	}
	bridge := strings.Join([]string{p.BridgeName, p.BridgeVirtualRouter}, ",")
	return []string{"msgVpns", msgVpn(task), "bridges", bridge, "remoteSubscriptions"}, nil
}

func (r *BridgeRemoteSubscriptionsReconciler) ValidateFunc(task *topology.Task) error {
	if err := validateListTask(task); err != nil {
		return err
	}
	_, err := r.collection(task)
	return err
}

func (r *BridgeRemoteSubscriptionsReconciler) ListFunc(ctx context.Context, s *Session, task *topology.Task) ([]ListEntry, error) {
	collection, err := r.collection(task)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, s, collection)
}

func (r *BridgeRemoteSubscriptionsReconciler) CreateFunc(ctx context.Context, s *Session, task *topology.Task, key string, settings internal.Settings) (interface{}, error) {
	collection, err := r.collection(task)
	if err != nil {
		return nil, err
	}
	return r.create(ctx, s, collection, key, settings)
}

func (r *BridgeRemoteSubscriptionsReconciler) DeleteFunc(ctx context.Context, s *Session, task *topology.Task, key string) (interface{}, error) {
	collection, err := r.collection(task)
	if err != nil {
		return nil, err
	}
	return r.delete(ctx, s, collection, key)
}
