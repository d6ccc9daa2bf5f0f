package sempclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/clbanning/mxj/v2"
)

// decodeJSON keeps numbers as json.Number so that integers survive
// unchanged until settings are normalized.
func decodeJSON(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeJSONObject(data []byte) (map[string]interface{}, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]interface{}{}, nil
	}
	v, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a JSON object but got %T", v)
	}
	return m, nil
}

// parseBody returns the body as JSON, else as XML, else as text.
func parseBody(data []byte) interface{} {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if v, err := decodeJSON(data); err == nil {
		return v
	}
	if m, err := mxj.NewMapXml(data); err == nil {
		return map[string]interface{}(m)
	}
	return string(data)
}

// dataObject returns body.data when it is an object, else an empty map.
func dataObject(body map[string]interface{}) Settings {
	if d, ok := body["data"].(map[string]interface{}); ok {
		return d
	}
	return Settings{}
}

func dataList(body map[string]interface{}) []interface{} {
	if d, ok := body["data"].([]interface{}); ok {
		return d
	}
	return nil
}

func toInt64(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		i, err := t.Int64()
		return i, err == nil
	case float64:
		if t == math.Trunc(t) {
			return int64(t), true
		}
	case int:
		return int64(t), true
	case int64:
		return t, true
	case string:
		i, err := strconv.ParseInt(t, 10, 64)
		return i, err == nil
	}
	return 0, false
}

func stringValue(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}
