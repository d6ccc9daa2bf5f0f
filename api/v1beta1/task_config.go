/*
PubSub+ Topology Reconciler
Copyright 2024 The PubSub+ Topology Reconciler Authors

This product is licensed to you under the Mozilla Public License 2.0 license (the "License").  You may not use this product except in compliance with the Mozilla 2.0 License.

This product may include a number of subcomponents with separate copyright notices and license terms. Your use of these subcomponents is subject to the terms and conditions of the subcomponent's license, as noted in the LICENSE file.
*/

package v1beta1

import (
	"fmt"
	"net/url"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

const (
	DefaultHost              = "localhost"
	DefaultPort              = 8080
	DefaultUsername          = "admin"
	DefaultPassword          = "admin"
	DefaultTimeoutSeconds    = 10
	DefaultCloudTimeoutSecs  = 60
	SolaceCloudHomeUS        = "us"
	SolaceCloudHomeAU        = "au"
	BrokerNameHeader         = "x-broker-name"
	ReverseProxyModuleHeader = "x-asc-module"
	ReverseProxyOpHeader     = "x-asc-module-op"
)

// TaskConfig holds the connection parameters of a broker or Solace Cloud
// account. It is constructed once per run and never modified after Default.
type TaskConfig struct {
	// Broker host name or IP address.
	Host string `json:"host,omitempty"`
	// SEMP port.
	Port int `json:"port,omitempty"`
	// Use https instead of http.
	SecureConnection bool   `json:"secure_connection,omitempty"`
	Username         string `json:"username,omitempty"`
	Password         string `json:"password,omitempty"`
	// Request timeout in seconds.
	Timeout int `json:"timeout,omitempty"`
	// Defaults to true when omitted.
	ValidateCerts *bool `json:"validate_certs,omitempty"`
	// Path to a PEM file with additional certificate authorities.
	CABundle string `json:"ca_bundle,omitempty"`
	// Sent as the x-broker-name header on every SEMP request.
	XBroker      string        `json:"x_broker,omitempty"`
	ReverseProxy *ReverseProxy `json:"reverse_proxy,omitempty"`
	// Solace Cloud api token and service id. Provide both or neither.
	SolaceCloudAPIToken  string `json:"solace_cloud_api_token,omitempty"`
	SolaceCloudServiceID string `json:"solace_cloud_service_id,omitempty"`
	// Region of the Solace Cloud api. Empty and "us" select api.solace.cloud.
	SolaceCloudHome string `json:"solace_cloud_home,omitempty"`
	// Read username and password from a secret store instead.
	Credentials *CredentialsSource `json:"credentials,omitempty"`
}

// ReverseProxy describes an api gateway sitting between the client and the broker.
type ReverseProxy struct {
	// Base path prepended to every SEMP path, e.g. /my-gateway/broker-1
	SempBasePath string `json:"semp_base_path,omitempty"`
	// Send the broker username/password as basic auth to the proxy.
	UseBasicAuth bool              `json:"use_basic_auth,omitempty"`
	QueryParams  map[string]string `json:"query_params,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	// Add the task kind as header x-asc-module.
	XAscModule bool `json:"x_asc_module,omitempty"`
	// Add the operation name as header x-asc-module-op.
	XAscModuleOp bool `json:"x_asc_module_op,omitempty"`
}

type CredentialsSource struct {
	// Path of a kv secret in Vault holding username and password.
	VaultPath string `json:"vault_path,omitempty"`
	// Kubernetes Secret holding username and password.
	Secret *SecretReference `json:"secret,omitempty"`
}

type SecretReference struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
}

// Default fills in every unset field. Solace Cloud api calls are slower,
// so cloud tasks get a longer default timeout.
func (c *TaskConfig) Default(cloud bool) {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Username == "" && c.Credentials == nil {
		c.Username = DefaultUsername
	}
	if c.Password == "" && c.Credentials == nil {
		c.Password = DefaultPassword
	}
	if c.Timeout == 0 {
		if cloud {
			c.Timeout = DefaultCloudTimeoutSecs
		} else {
			c.Timeout = DefaultTimeoutSeconds
		}
	}
	if c.ValidateCerts == nil {
		validate := true
		c.ValidateCerts = &validate
	}
}

func (c *TaskConfig) IsSolaceCloud() bool {
	return c.SolaceCloudAPIToken != "" && c.SolaceCloudServiceID != ""
}

func (c *TaskConfig) ShouldValidateCerts() bool {
	return c.ValidateCerts == nil || *c.ValidateCerts
}

// BrokerURL returns scheme://host:port, without the reverse proxy base path.
func (c *TaskConfig) BrokerURL() string {
	scheme := "http"
	if c.SecureConnection {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// Validate returns an aggregate of all field errors, or nil.
func (c *TaskConfig) Validate() error {
	return c.validate(field.NewPath("connection")).ToAggregate()
}

func (c *TaskConfig) validate(path *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	if c.Port < 1 || c.Port > 65535 {
		allErrs = append(allErrs, field.Invalid(path.Child("port"), c.Port, "must be between 1 and 65535"))
	}
	if c.Timeout < 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("timeout"), c.Timeout, "must be at least 1 second"))
	}
	if (c.SolaceCloudAPIToken == "") != (c.SolaceCloudServiceID == "") {
		allErrs = append(allErrs, field.Invalid(path.Child("solace_cloud_service_id"), c.SolaceCloudServiceID,
			"must provide either both or none for Solace Cloud: solace_cloud_api_token and solace_cloud_service_id"))
	}
	switch c.SolaceCloudHome {
	case "", SolaceCloudHomeUS, SolaceCloudHomeAU:
	default:
		allErrs = append(allErrs, field.NotSupported(path.Child("solace_cloud_home"), c.SolaceCloudHome,
			[]string{"", SolaceCloudHomeUS, SolaceCloudHomeAU}))
	}
	if c.ReverseProxy != nil {
		allErrs = append(allErrs, c.ReverseProxy.validate(path.Child("reverse_proxy"))...)
	}
	if c.Credentials != nil {
		allErrs = append(allErrs, c.Credentials.validate(path.Child("credentials"))...)
	}
	return allErrs
}

func (r *ReverseProxy) validate(path *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	if r.SempBasePath != "" {
		if _, err := url.Parse(r.SempBasePath); err != nil {
			allErrs = append(allErrs, field.Invalid(path.Child("semp_base_path"), r.SempBasePath, err.Error()))
		}
	}
	for k := range r.Headers {
		if k == "" {
			allErrs = append(allErrs, field.Invalid(path.Child("headers"), k, "header name must not be empty"))
		}
	}
	for k := range r.QueryParams {
		if k == "" {
			allErrs = append(allErrs, field.Invalid(path.Child("query_params"), k, "query parameter name must not be empty"))
		}
	}
	return allErrs
}

func (s *CredentialsSource) validate(path *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	if s.VaultPath == "" && s.Secret == nil {
		allErrs = append(allErrs, field.Required(path, "provide either vault_path or secret"))
	}
	if s.VaultPath != "" && s.Secret != nil {
		allErrs = append(allErrs, field.Forbidden(path, "do not provide both vault_path and secret"))
	}
	if s.Secret != nil && s.Secret.Name == "" {
		allErrs = append(allErrs, field.Required(path.Child("secret", "name"), ""))
	}
	return allErrs
}
