/*
PubSub+ Topology Reconciler
Copyright 2024 The PubSub+ Topology Reconciler Authors

This product is licensed to you under the Mozilla Public License 2.0 license (the "License").  You may not use this product except in compliance with the Mozilla 2.0 License.

This product may include a number of subcomponents with separate copyright notices and license terms. Your use of these subcomponents is subject to the terms and conditions of the subcomponent's license, as noted in the LICENSE file.
*/

package controllers

import (
	"errors"
	"fmt"
	"net/url"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

const (
	reverseProxyHint         = "possible reason: reverse proxy/api gateway error"
	reverseProxyNotFoundHint = "possible reason: resource not configured or blocked on the reverse proxy/api gateway"
	raiseIssue               = "Pls raise an issue including the full details. (hint: use -v=1)"
	systemCABundle           = "system default"
)

// ValidationError wraps invalid task parameters.
type ValidationError struct {
	Err error
}

func newValidationError(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// UsageError is a state or operation a kind does not support, e.g. updating
// a Solace Cloud service.
type UsageError struct {
	Module string
	State  topology.State
	Msg    string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("module usage error: module %q, state %q: %s", e.Module, e.State, e.Msg)
}

// InternalError is a combination that cannot happen unless the code is wrong.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Msg
}

// InvalidKeysError is a settings key the current object does not have.
type InvalidKeysError struct {
	Invalid []string
	Valid   []string
}

func (e *InvalidKeysError) Error() string {
	return fmt.Sprintf("invalid key(s) found in 'settings': %v", e.Invalid)
}

// ErrorResult converts a failed task into its result. partial carries what a
// task did before it failed; it may be nil.
func ErrorResult(config topology.TaskConfig, module string, err error, partial *topology.Result) *topology.Result {
	result := &topology.Result{RC: topology.RCFailure}
	if partial != nil {
		result.Changed = partial.Changed
		result.Response = partial.Response
	}
	result.Msg = errorMessage(config, module, err, result)
	return result
}

func errorMessage(config topology.TaskConfig, module string, err error, result *topology.Result) interface{} {
	var (
		apiErr      *sempclient.ApiError
		netErr      *sempclient.NetworkError
		jobErr      *sempclient.JobError
		validErr    *ValidationError
		usageErr    *UsageError
		internalErr *InternalError
		keysErr     *InvalidKeysError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErrorMessage(config, apiErr)
	case errors.As(err, &netErr):
		if netErr.IsTLS() {
			caBundle := config.CABundle
			if caBundle == "" {
				caBundle = systemCABundle
			}
			return []string{
				"Check SSL configuration & certificate required for host",
				"Certificate authority (CA) bundle used: " + caBundle,
				netErr.Error(),
			}
		}
		return netErr.Error()
	case errors.As(err, &jobErr):
		return map[string]interface{}{
			"error": jobErr.Error(),
			"job":   jobErr.Data,
		}
	case errors.As(err, &keysErr):
		result.Response = map[string]interface{}{
			"invalid_keys": keysErr.Invalid,
			"hint": []string{
				"possible causes:",
				"- wrong spelling or wrong key: check the Solace Cloud API reference documentation",
				"- the kind's whitelist isn't up to date: pls raise an issue",
			},
			"valid_keys": keysErr.Valid,
		}
		return "invalid key(s) found in 'settings'"
	case errors.As(err, &validErr):
		return []string{fmt.Sprintf("module '%s': argument validation failed", module), validErr.Error()}
	case errors.As(err, &usageErr):
		msg := []string{
			"module usage error:",
			fmt.Sprintf(" module: '%s'", usageErr.Module),
			fmt.Sprintf(" state: '%s'", usageErr.State),
		}
		if usageErr.Msg != "" {
			msg = append(msg, usageErr.Msg)
		}
		return msg
	case errors.As(err, &internalErr):
		return []string{raiseIssue, internalErr.Msg}
	}
	return []string{raiseIssue, err.Error()}
}

func apiErrorMessage(config topology.TaskConfig, e *sempclient.ApiError) interface{} {
	response := map[string]interface{}{
		"status_code": e.StatusCode,
		"reason":      e.Reason,
		"body":        e.Body,
	}
	// Solace Cloud names the cause of a rejected request in subCode
	if subCode, ok := e.CloudSubCode(); ok {
		response["sub_code"] = subCode
	}
	if e.IsBrokerError() || config.ReverseProxy == nil {
		response["module"] = e.Module
		response["operation"] = e.Op
		response["request"] = map[string]interface{}{
			"method":  e.Method,
			"url":     e.URL,
			"headers": e.Headers,
		}
		return response
	}

	resource, query := e.URL, ""
	if u, err := url.Parse(e.URL); err == nil {
		resource, query = u.Path, u.RawQuery
	}
	hint := reverseProxyHint
	if e.StatusCode == 404 || e.StatusCode == 501 {
		hint = reverseProxyNotFoundHint
	}
	return map[string]interface{}{
		"details": map[string]interface{}{
			"module": map[string]interface{}{
				"name":      e.Module,
				"operation": e.Op,
			},
			"http": map[string]interface{}{
				"request": map[string]interface{}{
					"method":   e.Method,
					"resource": resource,
					"query":    query,
				},
				"response": response,
			},
		},
		"hint": hint,
	}
}
