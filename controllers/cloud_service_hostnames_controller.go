package controllers

import (
	"context"
	"fmt"
	"strings"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/internal"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

const (
	cloudHostnameSuffix = ".messaging.solace.cloud"
	serviceHostNames    = "serviceHostNames"
)

// CloudServiceHostnamesReconciler reconciles the additional hostnames of a
// Solace Cloud service. Names are declared without the domain suffix.
type CloudServiceHostnamesReconciler struct{}

func NewCloudServiceHostnamesReconciler() *CloudServiceHostnamesReconciler {
	return &CloudServiceHostnamesReconciler{}
}

func (r *CloudServiceHostnamesReconciler) Module() string {
	return "cloud_service_hostnames"
}

func (r *CloudServiceHostnamesReconciler) ValidateFunc(task *topology.Task) error {
	return validateListTask(task)
}

func (r *CloudServiceHostnamesReconciler) KeyFunc(_ *topology.Task, name string) string {
	if strings.HasSuffix(name, cloudHostnameSuffix) {
		return name
	}
	return name + cloudHostnameSuffix
}

func (r *CloudServiceHostnamesReconciler) ListFunc(ctx context.Context, s *Session, _ *topology.Task) ([]ListEntry, error) {
	serviceID, c, err := cloudService(s)
	if err != nil {
		return nil, err
	}
	res, err := c.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !res.Found {
		return nil, newValidationError(fmt.Errorf("solace cloud service %s not found", serviceID))
	}
	hostnames, _ := res.Settings["additionalHostnames"].([]interface{})
	entries := make([]ListEntry, 0, len(hostnames))
	for _, h := range hostnames {
		if name, ok := h.(string); ok && name != "" {
			entries = append(entries, ListEntry{Key: name})
		}
	}
	return entries, nil
}

func (r *CloudServiceHostnamesReconciler) CreateFunc(ctx context.Context, s *Session, _ *topology.Task, key string, _ internal.Settings) (interface{}, error) {
	return r.request(ctx, s, sempclient.OpCreateObject, "create", key)
}

func (r *CloudServiceHostnamesReconciler) DeleteFunc(ctx context.Context, s *Session, _ *topology.Task, key string) (interface{}, error) {
	return r.request(ctx, s, sempclient.OpDeleteObject, "delete", key)
}

func (r *CloudServiceHostnamesReconciler) request(ctx context.Context, s *Session, op, operation, hostname string) (interface{}, error) {
	serviceID, c, err := cloudService(s)
	if err != nil {
		return nil, err
	}
	body := internal.Settings{
		// the api takes the first label only
		"serviceHostName": strings.SplitN(hostname, ".", 2)[0],
		"operation":       operation,
	}
	return c.ServiceRequest(ctx, op, serviceID, []string{serviceHostNames}, body)
}
