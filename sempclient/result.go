package sempclient

// Settings is an attribute map as returned by the broker or Solace Cloud.
type Settings = map[string]interface{}

// GetResult is the outcome of reading a single object. A not-found response
// is a regular result, not an error.
type GetResult struct {
	Found    bool
	Settings Settings
}

func Found(s Settings) GetResult {
	if s == nil {
		s = Settings{}
	}
	return GetResult{Found: true, Settings: s}
}

func NotFound() GetResult {
	return GetResult{}
}

// ListItem is one element of a SEMP v2 collection: the object data paired by
// index with its collections entry.
type ListItem struct {
	Data        Settings `json:"data"`
	Collections Settings `json:"collections,omitempty"`
}
