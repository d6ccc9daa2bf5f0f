/*
PubSub+ Topology Reconciler
Copyright 2024 The PubSub+ Topology Reconciler Authors

This product is licensed to you under the Mozilla Public License 2.0 license (the "License").  You may not use this product except in compliance with the Mozilla 2.0 License.

This product may include a number of subcomponents with separate copyright notices and license terms. Your use of these subcomponents is subject to the terms and conditions of the subcomponent's license, as noted in the LICENSE file.
*/

package sempclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
)

// Client talks SEMP v2 and SEMP v1 to a single broker, directly or through a
// reverse proxy.
type Client struct {
	baseURL string
	query   url.Values
	header  http.Header
	auth    *basicAuth
	proxy   *topology.ReverseProxy
	t       *transport
}

type Factory func(config topology.TaskConfig, opts Options) (*Client, error)

var ClientFactory Factory = NewClient

// NewClient expects a defaulted and validated config.
func NewClient(config topology.TaskConfig, opts Options) (*Client, error) {
	opts = opts.withDefaults()
	tlsCfg, err := tlsConfig(config.ShouldValidateCerts(), config.CABundle)
	if err != nil {
		return nil, err
	}
	baseURL, err := brokerBaseURL(config)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: baseURL,
		query:   url.Values{},
		header:  http.Header{},
		proxy:   config.ReverseProxy,
		t:       newTransport(time.Duration(config.Timeout)*time.Second, tlsCfg, opts, nil),
	}
	if config.XBroker != "" {
		c.header.Set(topology.BrokerNameHeader, config.XBroker)
	}
	if rp := config.ReverseProxy; rp != nil {
		for k, v := range rp.Headers {
			c.header.Set(k, v)
		}
		for k, v := range rp.QueryParams {
			c.query.Set(k, v)
		}
	}
	if config.ReverseProxy == nil || config.ReverseProxy.UseBasicAuth {
		c.auth = &basicAuth{username: config.Username, password: config.Password}
	}
	return c, nil
}

// brokerBaseURL returns scheme://host:port followed by the reverse proxy base
// path, without a trailing slash.
func brokerBaseURL(config topology.TaskConfig) (string, error) {
	base := config.BrokerURL()
	if config.ReverseProxy != nil && config.ReverseProxy.SempBasePath != "" {
		p := strings.Trim(config.ReverseProxy.SempBasePath, "/")
		if p != "" {
			base = base + "/" + p
		}
	}
	if _, err := url.Parse(base); err != nil {
		return "", fmt.Errorf("invalid broker url %s: %w", base, err)
	}
	return base, nil
}

func (c *Client) url(path string, query url.Values) string {
	merged := url.Values{}
	for k, v := range c.query {
		merged[k] = v
	}
	for k, v := range query {
		merged[k] = v
	}
	if len(merged) == 0 {
		return c.baseURL + path
	}
	return c.baseURL + path + "?" + merged.Encode()
}

func (c *Client) headersFor(ctx context.Context, op string) http.Header {
	h := c.header.Clone()
	if c.proxy != nil {
		if c.proxy.XAscModule {
			h.Set(topology.ReverseProxyModuleHeader, ModuleFrom(ctx))
		}
		if c.proxy.XAscModuleOp {
			h.Set(topology.ReverseProxyOpHeader, op)
		}
	}
	return h
}

func (c *Client) newRequest(ctx context.Context, api, op, method, fullURL string, body []byte, contentType string) request {
	return request{
		api:         api,
		op:          op,
		method:      method,
		url:         fullURL,
		body:        body,
		contentType: contentType,
		header:      c.headersFor(ctx, op),
		auth:        c.auth,
	}
}

// doJSON sends a SEMP v2 request and decodes the JSON body of a 200 answer.
// Every other status is returned as *ApiError.
func (c *Client) doJSON(ctx context.Context, op, method, fullURL string, payload interface{}) (map[string]interface{}, error) {
	var body []byte
	contentType := ""
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("unable to encode request body: %w", err)
		}
		contentType = "application/json"
	}
	r := c.newRequest(ctx, apiSempV2, op, method, fullURL, body, contentType)
	resp, err := c.t.do(ctx, r)
	if err != nil {
		return nil, err
	}
	if resp.statusCode != http.StatusOK {
		return nil, c.t.apiError(ctx, r, resp)
	}
	decoded, err := decodeJSONObject(resp.body)
	if err != nil {
		return nil, fmt.Errorf("unable to decode response of %s %s: %w", method, fullURL, err)
	}
	return decoded, nil
}

// IsNotFound reports whether err is the SEMP v2 not-found signature:
// status 400 with meta.error.code 6.
func IsNotFound(err error) bool {
	var apiErr *ApiError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		return false
	}
	code, ok := apiErr.SempV2ErrorCode()
	return ok && code == sempV2NotFoundCode
}

const sempV2NotFoundCode = 6
