package sempclient

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ApiError is a non-2xx response that is not a not-found signature, or a
// SEMP v1 reply without an ok execute result.
type ApiError struct {
	Module     string
	Op         string
	Method     string
	URL        string
	StatusCode int
	Reason     string
	// Parsed JSON or XML body, or the raw text if it could not be parsed.
	Body interface{}
	// Request headers with credentials masked.
	Headers map[string]string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("%s %s: %s %s failed with status %d %s", e.Module, e.Op, e.Method, e.URL, e.StatusCode, e.Reason)
}

// IsBrokerError reports whether the body is a SEMP v2 error envelope, i.e.
// the response came from the broker and not from a proxy in between.
func (e *ApiError) IsBrokerError() bool {
	body, ok := e.Body.(map[string]interface{})
	if !ok {
		return false
	}
	_, ok = body["meta"]
	return ok
}

// SempV2ErrorCode returns meta.error.code of a SEMP v2 error envelope.
func (e *ApiError) SempV2ErrorCode() (int64, bool) {
	body, ok := e.Body.(map[string]interface{})
	if !ok {
		return 0, false
	}
	return sempV2ErrorCode(body)
}

// CloudSubCode returns subCode of a Solace Cloud error body.
func (e *ApiError) CloudSubCode() (string, bool) {
	body, ok := e.Body.(map[string]interface{})
	if !ok {
		return "", false
	}
	v, ok := body["subCode"]
	if !ok {
		return "", false
	}
	return fmt.Sprint(v), true
}

// NetworkError is a request that never got a response: connection refused,
// timeout or a failed TLS handshake.
type NetworkError struct {
	Module string
	Op     string
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %s %s: %s", e.Module, e.Op, e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsTLS reports whether the request failed on certificate verification or
// the TLS handshake.
func (e *NetworkError) IsTLS() bool {
	return isTLSError(e.Err)
}

// JobError is a Solace Cloud request or service that ended in the failed
// state or did not finish in time.
type JobError struct {
	Module string
	Op     string
	ID     string
	State  string
	Data   Settings
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s %s: solace cloud job %s ended in state %q", e.Module, e.Op, e.ID, e.State)
}

func isTLSError(err error) bool {
	var (
		unknownAuthority x509.UnknownAuthorityError
		invalidCert      x509.CertificateInvalidError
		hostname         x509.HostnameError
		verification     *tls.CertificateVerificationError
		recordHeader     tls.RecordHeaderError
	)
	switch {
	case errors.As(err, &unknownAuthority),
		errors.As(err, &invalidCert),
		errors.As(err, &hostname),
		errors.As(err, &verification),
		errors.As(err, &recordHeader):
		return true
	}
	return strings.Contains(err.Error(), "tls: ")
}

func maskHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		if strings.EqualFold(k, "Authorization") {
			out[k] = "***"
			continue
		}
		out[k] = h.Get(k)
	}
	return out
}

func sempV2ErrorCode(body map[string]interface{}) (int64, bool) {
	meta, ok := body["meta"].(map[string]interface{})
	if !ok {
		return 0, false
	}
	e, ok := meta["error"].(map[string]interface{})
	if !ok {
		return 0, false
	}
	return toInt64(e["code"])
}
