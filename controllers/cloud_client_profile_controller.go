package controllers

import (
	"context"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/internal"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

const (
	clientProfileKey       = "clientProfileName"
	clientProfileRequests  = "clientProfileRequests"
	spoolUsageThresholdKey = "eventClientProvisionedEndpointSpoolUsageThreshold"
)

// Solace Cloud does not fill in omitted attributes of a new client profile.
var cloudClientProfileDefaults = internal.Settings{
	"allowGuaranteedMsgSendEnabled":                  "true",
	"allowGuaranteedMsgReceiveEnabled":               "true",
	"allowUseCompression":                            "true",
	"replicationAllowClientConnectWhenStandbyEnabled": "false",
	"allowTransactedSessionsEnabled":                 "true",
	"allowBridgeConnectionsEnabled":                  "true",
	"allowGuaranteedEndpointCreateEnabled":           "true",
	"allowSharedSubscriptionsEnabled":                true,
	"apiQueueManagementCopyFromOnCreateName":         "",
	"apiTopicEndpointManagementCopyFromOnCreateName": "",
	"serviceWebInactiveTimeout":                      "30",
	"serviceWebMaxPayload":                           "1000000",
	"maxConnectionCountPerClientUsername":            "100",
	"serviceSmfMaxConnectionCountPerClientUsername":  "1000",
	"serviceWebMaxConnectionCountPerClientUsername":  "1000",
	"maxEndpointCountPerClientUsername":              "100",
	"maxEgressFlowCount":                             "100",
	"maxIngressFlowCount":                            "100",
	"maxSubscriptionCount":                           "1000",
	"maxTransactedSessionCount":                      "100",
	"maxTransactionCount":                            "500",
	"queueGuaranteed1MaxDepth":                       "20000",
	"queueGuaranteed1MinMsgBurst":                    66000,
	"queueDirect1MaxDepth":                           "20000",
	"queueDirect1MinMsgBurst":                        "4",
	"queueDirect2MaxDepth":                           "20000",
	"queueDirect2MinMsgBurst":                        "4",
	"queueDirect3MaxDepth":                           "20000",
	"queueDirect3MinMsgBurst":                        "4",
	"queueControl1MaxDepth":                          "20000",
	"queueControl1MinMsgBurst":                       "4",
	"tcpCongestionWindowSize":                        "2",
	"tcpKeepaliveCount":                              "5",
	"tcpKeepaliveIdleTime":                           "3",
	"tcpKeepaliveInterval":                           "1",
	"tcpMaxSegmentSize":                              "1460",
	"tcpMaxWindowSize":                               "256",
	"elidingDelay":                                   0,
	"elidingEnabled":                                 true,
	"elidingMaxTopicCount":                           256,
	"rejectMsgToSenderOnNoSubscriptionMatchEnabled":  false,
	"tlsAllowDowngradeToPlainTextEnabled":            true,
	spoolUsageThresholdKey: map[string]interface{}{
		"setPercent":   "80",
		"clearPercent": "60",
	},
}

// CloudClientProfileReconciler reconciles a client profile of a Solace Cloud
// service. Reads go to services/{id}/clientProfiles/{name}; every change is a
// clientProfileRequests job.
type CloudClientProfileReconciler struct {
	whitelist internal.Whitelist
}

func NewCloudClientProfileReconciler() *CloudClientProfileReconciler {
	// the spool usage threshold is never returned on read
	return &CloudClientProfileReconciler{whitelist: internal.NewWhitelist([]string{spoolUsageThresholdKey})}
}

func (r *CloudClientProfileReconciler) Kind() ObjectKind {
	return ObjectKind{
		Module:        "cloud_client_profile",
		DesiredTarget: internal.BrokerTarget,
		CurrentTarget: internal.TypedTarget,
		Whitelist:     r.whitelist,
	}
}

func (r *CloudClientProfileReconciler) ValidateFunc(task *topology.Task) error {
	return validateNamedObject(task)
}

func (r *CloudClientProfileReconciler) GetFunc(ctx context.Context, s *Session, task *topology.Task) (sempclient.GetResult, error) {
	serviceID, c, err := cloudService(s)
	if err != nil {
		return sempclient.GetResult{}, err
	}
	return c.Get(ctx, sempclient.CloudServices, serviceID, "clientProfiles", task.Name)
}

func (r *CloudClientProfileReconciler) CreateFunc(ctx context.Context, s *Session, task *topology.Task, settings internal.Settings) (interface{}, error) {
	data := internal.MergeSettings(internal.Settings{clientProfileKey: task.Name}, cloudClientProfileDefaults, settings)
	return r.request(ctx, s, sempclient.OpCreateObject, "create", data)
}

// UpdateFunc sends the changed attributes only. The spool usage threshold is
// mandatory on every update.
func (r *CloudClientProfileReconciler) UpdateFunc(ctx context.Context, s *Session, task *topology.Task, settings, delta, current internal.Settings) (interface{}, error) {
	data := internal.MergeSettings(delta, internal.Settings{clientProfileKey: task.Name})
	if _, ok := data[spoolUsageThresholdKey]; !ok {
		if v, ok := settings[spoolUsageThresholdKey]; ok {
			data[spoolUsageThresholdKey] = internal.DeepCopyValue(v)
		} else if v, ok := current[spoolUsageThresholdKey]; ok {
			data[spoolUsageThresholdKey] = internal.DeepCopyValue(v)
		}
	}
	return r.request(ctx, s, sempclient.OpUpdateObject, "update", data)
}

func (r *CloudClientProfileReconciler) DeleteFunc(ctx context.Context, s *Session, task *topology.Task, _ internal.Settings) (interface{}, error) {
	return r.request(ctx, s, sempclient.OpDeleteObject, "delete", internal.Settings{clientProfileKey: task.Name})
}

func (r *CloudClientProfileReconciler) request(ctx context.Context, s *Session, op, operation string, data internal.Settings) (interface{}, error) {
	serviceID, c, err := cloudService(s)
	if err != nil {
		return nil, err
	}
	body := internal.Settings{
		"operation":     operation,
		"clientProfile": data,
	}
	return c.ServiceRequest(ctx, op, serviceID, []string{sempclient.CloudRequests, clientProfileRequests}, body)
}

func cloudService(s *Session) (string, *sempclient.CloudClient, error) {
	serviceID, err := s.ServiceID()
	if err != nil {
		return "", nil, err
	}
	c, err := s.Cloud()
	if err != nil {
		return "", nil, err
	}
	return serviceID, c, nil
}
