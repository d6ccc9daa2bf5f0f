/*
PubSub+ Topology Reconciler
Copyright 2024 The PubSub+ Topology Reconciler Authors

This product is licensed to you under the Mozilla Public License 2.0 license (the "License").  You may not use this product except in compliance with the Mozilla 2.0 License.

This product may include a number of subcomponents with separate copyright notices and license terms. Your use of these subcomponents is subject to the terms and conditions of the subcomponent's license, as noted in the LICENSE file.
*/

package internal

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// Settings is a flat or nested attribute map of a broker or Solace Cloud object.
type Settings = map[string]interface{}

// Target selects the value representation an api expects.
type Target int

const (
	// BrokerTarget: SEMP wants native ints, floats and booleans.
	BrokerTarget Target = iota
	// CloudTarget: the Solace Cloud api wants every scalar as a string.
	CloudTarget
	// TypedTarget reads string typed Solace Cloud objects back into native
	// values: like BrokerTarget, plus "true" and "false" become booleans.
	TypedTarget
)

func (t Target) String() string {
	switch t {
	case CloudTarget:
		return "solace-cloud"
	case TypedTarget:
		return "typed"
	}
	return "broker"
}

var (
	integerString = regexp.MustCompile(`^[0-9]+$`)
	floatString   = regexp.MustCompile(`^[0-9]+\.[0-9]$`)
)

// NormalizeSettings returns a copy of s with every value converted to the
// representation of target. Nested maps and lists are walked recursively.
// s is not modified.
func NormalizeSettings(s Settings, target Target) Settings {
	if s == nil {
		return nil
	}
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = normalizeValue(v, target)
	}
	return out
}

func normalizeValue(v interface{}, target Target) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return NormalizeSettings(t, target)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = normalizeValue(t[i], target)
		}
		return out
	}
	switch target {
	case CloudTarget:
		return stringify(v)
	case TypedTarget:
		if b, ok := v.(string); ok {
			switch strings.ToLower(b) {
			case "true":
				return true
			case "false":
				return false
			}
		}
	}
	return coerce(v)
}

func stringify(v interface{}) interface{} {
	switch t := v.(type) {
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return formatFloat(float64(t))
	case float64:
		return formatFloat(t)
	case json.Number:
		return t.String()
	}
	return v
}

func formatFloat(f float64) string {
	if isIntegral(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// coerce turns numeric looking strings into numbers and brings every number
// into one canonical form: int64 for integral values, float64 otherwise.
func coerce(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		if integerString.MatchString(t) {
			if i, err := strconv.ParseInt(t, 10, 64); err == nil {
				return i
			}
			return t
		}
		if floatString.MatchString(t) {
			if f, err := strconv.ParseFloat(t, 64); err == nil {
				return canonicalFloat(f)
			}
		}
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return canonicalFloat(float64(t))
	case float64:
		return canonicalFloat(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return canonicalFloat(f)
		}
		return t.String()
	}
	return v
}

func canonicalFloat(f float64) interface{} {
	if isIntegral(f) {
		return int64(f)
	}
	return f
}

func isIntegral(f float64) bool {
	return f == math.Trunc(f) && math.Abs(f) < 1<<63
}

// DeepDiff returns the subset of desired whose values differ from current.
// Nested maps present on both sides are compared recursively and kept only
// when they differ; nested maps missing from current are copied whole. A key
// missing from current compares like a nil value.
func DeepDiff(desired, current Settings) Settings {
	delta := Settings{}
	deepDiff(desired, current, delta)
	return delta
}

func deepDiff(desired, current, delta Settings) {
	for k, v := range desired {
		nested, isMap := v.(map[string]interface{})
		if !isMap {
			if !cmp.Equal(v, current[k]) {
				delta[k] = DeepCopyValue(v)
			}
			continue
		}
		currentNested, ok := current[k].(map[string]interface{})
		if !ok {
			delta[k] = DeepCopyValue(nested)
			continue
		}
		child := Settings{}
		deepDiff(nested, currentNested, child)
		if len(child) > 0 {
			delta[k] = child
		}
	}
}

// DeepCopyValue copies maps and lists recursively. Scalars are returned as is.
func DeepCopyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = DeepCopyValue(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = DeepCopyValue(e)
		}
		return out
	}
	return v
}

// MergeSettings returns a new map holding the keys of all maps, later maps
// winning. nil maps are skipped.
func MergeSettings(maps ...Settings) Settings {
	out := Settings{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = DeepCopyValue(v)
		}
	}
	return out
}
