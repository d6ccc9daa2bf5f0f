package controllers

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
)

const defaultMsgVpn = "default"

// decodeParams decodes the kind specific params of a task into out. Unknown
// params are rejected so that typos do not go unnoticed.
func decodeParams(task *topology.Task, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return &InternalError{Msg: fmt.Sprintf("unable to build params decoder: %s", err)}
	}
	if err := dec.Decode(task.Params); err != nil {
		return newValidationError(fmt.Errorf("invalid params: %w", err))
	}
	return nil
}

func msgVpn(task *topology.Task) string {
	if task.MsgVpn == "" {
		return defaultMsgVpn
	}
	return task.MsgVpn
}

// withKey returns a copy of settings with key set to name.
func withKey(settings map[string]interface{}, key, name string) map[string]interface{} {
	out := make(map[string]interface{}, len(settings)+1)
	for k, v := range settings {
		out[k] = v
	}
	out[key] = name
	return out
}
