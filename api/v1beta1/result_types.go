package v1beta1

import (
	"encoding/json"
)

const (
	RCSuccess = 0
	RCFailure = 1
)

// Result is the outcome of one task.
type Result struct {
	RC      int  `json:"rc"`
	Changed bool `json:"changed"`
	// Api response, current settings or per item outcomes of a list task.
	Response interface{}            `json:"response,omitempty"`
	Delta    map[string]interface{} `json:"delta,omitempty"`
	// Human readable failure details. Only set when RC is RCFailure.
	Msg interface{} `json:"msg,omitempty"`
	// Set for list queries only, where an empty list is still reported.
	ResultList      *[]interface{} `json:"result_list,omitempty"`
	ResultListCount *int           `json:"result_list_count,omitempty"`
}

func NewResult(changed bool) *Result {
	return &Result{RC: RCSuccess, Changed: changed}
}

// NewListResult returns the result of a list query. result_list and
// result_list_count are present also for empty lists.
func NewListResult(items []interface{}) *Result {
	count := len(items)
	if items == nil {
		items = []interface{}{}
	}
	return &Result{RC: RCSuccess, ResultList: &items, ResultListCount: &count}
}

func (r *Result) Failed() bool {
	return r.RC != RCSuccess
}

type ItemTag string

const (
	ItemAdded     ItemTag = "added"
	ItemDeleted   ItemTag = "deleted"
	ItemDuplicate ItemTag = "duplicate"
	ItemError     ItemTag = "error"
)

// ItemResult is the outcome for one key of a list task. It serializes as
// {"added": "topic-1"}, with an optional detail for errors.
type ItemResult struct {
	Tag    ItemTag
	Key    string
	Detail string
}

func (i ItemResult) MarshalJSON() ([]byte, error) {
	m := map[string]string{string(i.Tag): i.Key}
	if i.Detail != "" {
		m["detail"] = i.Detail
	}
	return json.Marshal(m)
}

// TaskResult pairs a result with the task it belongs to in the run output.
type TaskResult struct {
	Description string `json:"description,omitempty"`
	Kind        string `json:"kind"`
	*Result
}
