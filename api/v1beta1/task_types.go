/*
PubSub+ Topology Reconciler
Copyright 2024 The PubSub+ Topology Reconciler Authors

This product is licensed to you under the Mozilla Public License 2.0 license (the "License").  You may not use this product except in compliance with the Mozilla 2.0 License.

This product may include a number of subcomponents with separate copyright notices and license terms. Your use of these subcomponents is subject to the terms and conditions of the subcomponent's license, as noted in the LICENSE file.
*/

package v1beta1

import (
	"k8s.io/apimachinery/pkg/util/validation/field"
)

type State string

const (
	StatePresent State = "present"
	StateAbsent  State = "absent"
	// StateExactly makes the live set of a list equal to the declared list.
	StateExactly State = "exactly"
)

// TaskFile is the document read by the CLI.
type TaskFile struct {
	Connection TaskConfig `json:"connection,omitempty"`
	// Compute changes without calling any mutating api.
	CheckMode bool   `json:"check_mode,omitempty"`
	Tasks     []Task `json:"tasks"`
}

// Task declares the desired state of one broker or Solace Cloud object, or of
// a list of sibling objects.
type Task struct {
	// Free text shown in the output.
	Description string `json:"description,omitempty"`
	// One of the registered task kinds, e.g. queue or queue_subscriptions.
	Kind string `json:"kind"`
	// Defaults to present.
	State  State  `json:"state,omitempty"`
	MsgVpn string `json:"msg_vpn,omitempty"`
	// Object name for single-object kinds.
	Name string `json:"name,omitempty"`
	// Declared keys for list kinds.
	Names []string `json:"names,omitempty"`
	// Attributes merged onto the object.
	Settings map[string]interface{} `json:"settings,omitempty"`
	// Kind specific parameters, e.g. queue_name or bridge_virtual_router.
	Params map[string]interface{} `json:"params,omitempty"`
	// Overrides the connection of the task file, field by field.
	Connection *TaskConfig `json:"connection,omitempty"`
}

func (t *Task) DesiredState() State {
	if t.State == "" {
		return StatePresent
	}
	return t.State
}

// ValidateObjectTask validates a task reconciling a single object.
func (t *Task) ValidateObjectTask(requireName bool) error {
	var allErrs field.ErrorList
	path := field.NewPath("task")
	switch t.DesiredState() {
	case StatePresent, StateAbsent:
	default:
		allErrs = append(allErrs, field.NotSupported(path.Child("state"), t.State,
			[]string{string(StatePresent), string(StateAbsent)}))
	}
	if requireName && t.Name == "" {
		allErrs = append(allErrs, field.Required(path.Child("name"), "object name is required"))
	}
	if len(t.Names) > 0 {
		allErrs = append(allErrs, field.Forbidden(path.Child("names"), "use name for single object kinds"))
	}
	return allErrs.ToAggregate()
}

// ValidateListTask validates a task reconciling a list of objects. An empty
// list is valid; with state exactly it removes every existing object.
func (t *Task) ValidateListTask() error {
	var allErrs field.ErrorList
	path := field.NewPath("task")
	switch t.DesiredState() {
	case StatePresent, StateAbsent, StateExactly:
	default:
		allErrs = append(allErrs, field.NotSupported(path.Child("state"), t.State,
			[]string{string(StatePresent), string(StateAbsent), string(StateExactly)}))
	}
	for i, n := range t.Names {
		if n == "" {
			allErrs = append(allErrs, field.Invalid(path.Child("names").Index(i), n, "must not be empty"))
		}
	}
	return allErrs.ToAggregate()
}

// MergedConnection returns the task file connection overlaid with the
// non-zero fields of the task connection.
func (t *Task) MergedConnection(base TaskConfig) TaskConfig {
	merged := base
	o := t.Connection
	if o == nil {
		return merged
	}
	if o.Host != "" {
		merged.Host = o.Host
	}
	if o.Port != 0 {
		merged.Port = o.Port
	}
	if o.SecureConnection {
		merged.SecureConnection = true
	}
	if o.Username != "" {
		merged.Username = o.Username
	}
	if o.Password != "" {
		merged.Password = o.Password
	}
	if o.Timeout != 0 {
		merged.Timeout = o.Timeout
	}
	if o.ValidateCerts != nil {
		merged.ValidateCerts = o.ValidateCerts
	}
	if o.CABundle != "" {
		merged.CABundle = o.CABundle
	}
	if o.XBroker != "" {
		merged.XBroker = o.XBroker
	}
	if o.ReverseProxy != nil {
		merged.ReverseProxy = o.ReverseProxy
	}
	if o.SolaceCloudAPIToken != "" {
		merged.SolaceCloudAPIToken = o.SolaceCloudAPIToken
	}
	if o.SolaceCloudServiceID != "" {
		merged.SolaceCloudServiceID = o.SolaceCloudServiceID
	}
	if o.SolaceCloudHome != "" {
		merged.SolaceCloudHome = o.SolaceCloudHome
	}
	if o.Credentials != nil {
		merged.Credentials = o.Credentials
	}
	return merged
}
