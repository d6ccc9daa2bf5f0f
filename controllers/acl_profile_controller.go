package controllers

import (
	"context"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/internal"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

type AclProfileReconciler struct {
	sempObject
}

func NewAclProfileReconciler() *AclProfileReconciler {
	return &AclProfileReconciler{sempObject: newSempObject("acl_profile", "aclProfileName")}
}

func (r *AclProfileReconciler) ValidateFunc(task *topology.Task) error {
	return validateNamedObject(task)
}

func (r *AclProfileReconciler) GetFunc(ctx context.Context, s *Session, task *topology.Task) (sempclient.GetResult, error) {
	return r.get(ctx, s, vpnCollection(task, "aclProfiles"), task.Name)
}

func (r *AclProfileReconciler) CreateFunc(ctx context.Context, s *Session, task *topology.Task, settings internal.Settings) (interface{}, error) {
	return r.create(ctx, s, vpnCollection(task, "aclProfiles"), task.Name, settings)
}

func (r *AclProfileReconciler) UpdateFunc(ctx context.Context, s *Session, task *topology.Task, settings, _, _ internal.Settings) (interface{}, error) {
	return r.update(ctx, s, vpnCollection(task, "aclProfiles"), task.Name, settings)
}

func (r *AclProfileReconciler) DeleteFunc(ctx context.Context, s *Session, task *topology.Task, _ internal.Settings) (interface{}, error) {
	return r.delete(ctx, s, vpnCollection(task, "aclProfiles"), task.Name)
}
