package sempclient

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"github.com/clbanning/mxj/v2"
)

const (
	SempV1Path = "/SEMP"

	sempV1CodePath = "rpc-reply.execute-result.-code"
	sempV1OK       = "ok"
)

// sempV1Cookie captures the more-cookie of a reply verbatim; its content is
// the rpc to send for the next page.
type sempV1Cookie struct {
	XMLName    xml.Name `xml:"rpc-reply"`
	MoreCookie *struct {
		Inner string `xml:",innerxml"`
	} `xml:"more-cookie"`
}

// SempV1Request posts an rpc document and returns the parsed reply. Replies
// without execute-result code "ok" are returned as *ApiError.
func (c *Client) SempV1Request(ctx context.Context, op, rpc string) (mxj.Map, []byte, error) {
	r := c.newRequest(ctx, apiSempV1, op, http.MethodPost, c.url(SempV1Path, nil), []byte(rpc), "application/xml")
	resp, err := c.t.do(ctx, r)
	if err != nil {
		return nil, nil, err
	}
	if resp.statusCode != http.StatusOK {
		return nil, nil, c.t.apiError(ctx, r, resp)
	}
	reply, err := mxj.NewMapXml(resp.body)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to parse SEMP v1 reply: %w", err)
	}
	if code := sempV1Code(reply); code != sempV1OK {
		apiErr := c.t.apiError(ctx, r, resp)
		apiErr.Body = map[string]interface{}{
			"request":  rpc,
			"response": map[string]interface{}(reply),
		}
		return nil, nil, apiErr
	}
	return reply, resp.body, nil
}

func sempV1Code(reply mxj.Map) string {
	values, err := reply.ValuesForPath(sempV1CodePath)
	if err != nil || len(values) == 0 {
		return ""
	}
	code, _ := values[0].(string)
	return code
}

// GetListV1 collects the elements at listPath across all pages of an rpc.
// A single element is returned as a one-element list and a missing path as
// an empty list.
func (c *Client) GetListV1(ctx context.Context, rpc string, listPath []string) ([]interface{}, error) {
	if len(listPath) == 0 {
		return nil, fmt.Errorf("empty SEMP v1 list path")
	}
	path := strings.Join(listPath, ".")
	result := []interface{}{}
	for rpc != "" {
		reply, raw, err := c.SempV1Request(ctx, OpReadObjectList, rpc)
		if err != nil {
			return nil, err
		}
		values, err := reply.ValuesForPath(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read %s from SEMP v1 reply: %w", path, err)
		}
		if len(values) == 0 {
			return result, nil
		}
		result = append(result, values...)

		if rpc, err = moreCookie(raw); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func moreCookie(raw []byte) (string, error) {
	var cookie sempV1Cookie
	if err := xml.Unmarshal(raw, &cookie); err != nil {
		return "", fmt.Errorf("unable to parse more-cookie of SEMP v1 reply: %w", err)
	}
	if cookie.MoreCookie == nil {
		return "", nil
	}
	return strings.TrimSpace(cookie.MoreCookie.Inner), nil
}
