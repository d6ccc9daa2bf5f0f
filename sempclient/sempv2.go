package sempclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	SempV2ConfigPath  = "/SEMP/v2/config"
	SempV2MonitorPath = "/SEMP/v2/monitor"
	sempV2Marker      = "/SEMP/v2/"

	DefaultPageCount = 100
)

// API selects the SEMP v2 api a list query runs against.
type API string

const (
	ConfigAPI  API = "config"
	MonitorAPI API = "monitor"
)

func (a API) basePath() (string, error) {
	switch a {
	case "", ConfigAPI:
		return SempV2ConfigPath, nil
	case MonitorAPI:
		return SempV2MonitorPath, nil
	}
	return "", fmt.Errorf("unknown SEMP v2 api %q, valid apis are: %s, %s", a, ConfigAPI, MonitorAPI)
}

// ListQuery holds the query parameters of a SEMP v2 collection request.
type ListQuery struct {
	// Page size. 0 means DefaultPageCount.
	Count  int
	Select []string
	Where  []string
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	count := q.Count
	if count <= 0 {
		count = DefaultPageCount
	}
	v.Set("count", strconv.Itoa(count))
	if len(q.Select) > 0 {
		v.Set("select", strings.Join(q.Select, ","))
	}
	if len(q.Where) > 0 {
		v.Set("where", strings.Join(q.Where, ","))
	}
	return v
}

func (c *Client) configURL(elems []string) (string, error) {
	path, err := ComposePath(append([]string{SempV2ConfigPath}, elems...)...)
	if err != nil {
		return "", err
	}
	return c.url(path, nil), nil
}

// GetSempVersion returns the SEMP v2 version of the broker, e.g. "2.21".
func (c *Client) GetSempVersion(ctx context.Context) (string, error) {
	u, err := c.configURL([]string{"about", "api"})
	if err != nil {
		return "", err
	}
	body, err := c.doJSON(ctx, OpReadSempVersion, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	version := stringValue(dataObject(body), "sempVersion")
	if version == "" {
		return "", fmt.Errorf("response of %s has no data.sempVersion", u)
	}
	return version, nil
}

// GetObject reads a config object addressed by path elements below
// /SEMP/v2/config.
func (c *Client) GetObject(ctx context.Context, elems ...string) (GetResult, error) {
	u, err := c.configURL(elems)
	if err != nil {
		return GetResult{}, err
	}
	body, err := c.doJSON(ctx, OpReadObject, http.MethodGet, u, nil)
	if IsNotFound(err) {
		return NotFound(), nil
	}
	if err != nil {
		return GetResult{}, err
	}
	return Found(dataObject(body)), nil
}

// CreateObject posts settings to the collection addressed by elems.
func (c *Client) CreateObject(ctx context.Context, elems []string, settings Settings) (Settings, error) {
	return c.write(ctx, OpCreateObject, http.MethodPost, elems, settings)
}

// UpdateObject patches the object addressed by elems.
func (c *Client) UpdateObject(ctx context.Context, elems []string, settings Settings) (Settings, error) {
	return c.write(ctx, OpUpdateObject, http.MethodPatch, elems, settings)
}

func (c *Client) DeleteObject(ctx context.Context, elems []string) (Settings, error) {
	return c.write(ctx, OpDeleteObject, http.MethodDelete, elems, nil)
}

func (c *Client) write(ctx context.Context, op, method string, elems []string, settings Settings) (Settings, error) {
	u, err := c.configURL(elems)
	if err != nil {
		return nil, err
	}
	var payload interface{}
	if settings != nil {
		payload = settings
	}
	body, err := c.doJSON(ctx, op, method, u, payload)
	if err != nil {
		return nil, err
	}
	return dataObject(body), nil
}

// GetObjectList reads all pages of a collection. Items are paired with the
// entry of the collections array at the same index.
func (c *Client) GetObjectList(ctx context.Context, api API, elems []string, q ListQuery) ([]ListItem, error) {
	base, err := api.basePath()
	if err != nil {
		return nil, err
	}
	path, err := ComposePath(append([]string{base}, elems...)...)
	if err != nil {
		return nil, err
	}

	var items []ListItem
	next := c.url(path, q.values())
	for next != "" {
		body, err := c.doJSON(ctx, OpReadObjectList, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		data := dataList(body)
		collections, _ := body["collections"].([]interface{})
		for i, d := range data {
			item := ListItem{}
			item.Data, _ = d.(map[string]interface{})
			if i < len(collections) {
				item.Collections, _ = collections[i].(map[string]interface{})
			}
			items = append(items, item)
		}
		next, err = c.nextPage(body)
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (c *Client) nextPage(body map[string]interface{}) (string, error) {
	meta, _ := body["meta"].(map[string]interface{})
	paging, _ := meta["paging"].(map[string]interface{})
	nextPageURI, _ := paging["nextPageUri"].(string)
	if nextPageURI == "" {
		return "", nil
	}
	return c.rewriteNextPageURI(nextPageURI)
}

// rewriteNextPageURI points a nextPageUri reported by the broker at the
// configured base url. The broker does not know about a reverse proxy in
// front of it, so everything before /SEMP/v2/ is replaced and the proxy
// query parameters are added back.
func (c *Client) rewriteNextPageURI(next string) (string, error) {
	i := strings.Index(next, sempV2Marker)
	if i < 0 {
		return "", fmt.Errorf("unexpected nextPageUri %q: missing %s", next, sempV2Marker)
	}
	rest := next[i:]
	path, rawQuery, _ := strings.Cut(rest, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("unable to parse query of nextPageUri %q: %w", next, err)
	}
	return c.url(path, query), nil
}
