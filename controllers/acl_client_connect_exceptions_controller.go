package controllers

import (
	"context"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/internal"
)

// AclClientConnectExceptionsReconciler reconciles the client connect
// exceptions of an ACL profile. Names are addresses in CIDR form.
type AclClientConnectExceptionsReconciler struct {
	sempList
}

type aclClientConnectExceptionsParams struct {
	AclProfileName string `json:"acl_profile_name"`
}

func NewAclClientConnectExceptionsReconciler() *AclClientConnectExceptionsReconciler {
	return &AclClientConnectExceptionsReconciler{sempList: sempList{module: "acl_client_connect_exceptions", keyAttr: "clientConnectExceptionAddress"}}
}

func (r *AclClientConnectExceptionsReconciler) collection(task *topology.Task) ([]string, error) {
	var p aclClientConnectExceptionsParams
	if err := decodeParams(task, &p); err != nil {
		return nil, err
	}
	if err := requireParam("acl_profile_name", p.AclProfileName); err != nil {
		return nil, err
	}
	return []string{"msgVpns", msgVpn(task), "aclProfiles", p.AclProfileName, "clientConnectExceptions"}, nil
}

func (r *AclClientConnectExceptionsReconciler) ValidateFunc(task *topology.Task) error {
	if err := validateListTask(task); err != nil {
		return err
	}
	_, err := r.collection(task)
	return err
}

func (r *AclClientConnectExceptionsReconciler) ListFunc(ctx context.Context, s *Session, task *topology.Task) ([]ListEntry, error) {
	collection, err := r.collection(task)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, s, collection)
}

func (r *AclClientConnectExceptionsReconciler) CreateFunc(ctx context.Context, s *Session, task *topology.Task, key string, settings internal.Settings) (interface{}, error) {
	collection, err := r.collection(task)
	if err != nil {
		return nil, err
	}
	return r.create(ctx, s, collection, key, settings)
}

func (r *AclClientConnectExceptionsReconciler) DeleteFunc(ctx context.Context, s *Session, task *topology.Task, key string) (interface{}, error) {
	collection, err := r.collection(task)
	if err != nil {
		return nil, err
	}
	return r.delete(ctx, s, collection, key)
}
