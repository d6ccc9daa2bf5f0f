package controllers

import (
	"context"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/internal"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

// VpnReconciler reconciles a message VPN, msgVpns/{name}.
type VpnReconciler struct {
	sempObject
}

func NewVpnReconciler() *VpnReconciler {
	return &VpnReconciler{sempObject: newSempObject("vpn", "msgVpnName",
		"authenticationBasicRadiusDomain", "replicationBridgeAuthenticationBasicPassword",
		"replicationBridgeAuthenticationClientCertContent", "replicationBridgeAuthenticationClientCertPassword")}
}

var vpns = []string{"msgVpns"}

func (r *VpnReconciler) ValidateFunc(task *topology.Task) error {
	return validateNamedObject(task)
}

func (r *VpnReconciler) GetFunc(ctx context.Context, s *Session, task *topology.Task) (sempclient.GetResult, error) {
	return r.get(ctx, s, vpns, task.Name)
}

func (r *VpnReconciler) CreateFunc(ctx context.Context, s *Session, task *topology.Task, settings internal.Settings) (interface{}, error) {
	return r.create(ctx, s, vpns, task.Name, settings)
}

func (r *VpnReconciler) UpdateFunc(ctx context.Context, s *Session, task *topology.Task, settings, _, _ internal.Settings) (interface{}, error) {
	return r.update(ctx, s, vpns, task.Name, settings)
}

func (r *VpnReconciler) DeleteFunc(ctx context.Context, s *Session, task *topology.Task, _ internal.Settings) (interface{}, error) {
	return r.delete(ctx, s, vpns, task.Name)
}
