package sempclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"k8s.io/utils/clock"
	ctrl "sigs.k8s.io/controller-runtime"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
)

const (
	SolaceCloudBaseURL   = "https://api.solace.cloud/api/v0"
	SolaceCloudAUBaseURL = "https://api.solacecloud.com.au/api/v0"

	CloudServices = "services"
	CloudRequests = "requests"

	jobCompleted = "completed"
	jobFailed    = "failed"

	serviceCreateRetries = 3
)

// CloudClient talks to the Solace Cloud REST api v0 with a bearer token.
type CloudClient struct {
	baseURL      string
	t            *transport
	clock        clock.Clock
	pollInterval time.Duration
	pollRetries  int
	metrics      *Metrics
}

type CloudFactory func(config topology.TaskConfig, opts Options) (*CloudClient, error)

var CloudClientFactory CloudFactory = NewCloudClient

func NewCloudClient(config topology.TaskConfig, opts Options) (*CloudClient, error) {
	if config.SolaceCloudAPIToken == "" {
		return nil, errors.New("solace_cloud_api_token is required for Solace Cloud requests")
	}
	opts = opts.withDefaults()
	tlsCfg, err := tlsConfig(config.ShouldValidateCerts(), config.CABundle)
	if err != nil {
		return nil, err
	}
	baseURL := opts.CloudBaseURL
	if baseURL == "" {
		baseURL = CloudBaseURL(config.SolaceCloudHome)
	}
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.SolaceCloudAPIToken, TokenType: "Bearer"})
	bearer := func(base http.RoundTripper) http.RoundTripper {
		return &oauth2.Transport{Source: tokens, Base: base}
	}
	return &CloudClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		t:            newTransport(time.Duration(config.Timeout)*time.Second, tlsCfg, opts, bearer),
		clock:        opts.Clock,
		pollInterval: opts.PollInterval,
		pollRetries:  opts.pollRetries(),
		metrics:      opts.Metrics,
	}, nil
}

// CloudBaseURL returns the api url of a Solace Cloud home region.
func CloudBaseURL(home string) string {
	if strings.EqualFold(home, topology.SolaceCloudHomeAU) {
		return SolaceCloudAUBaseURL
	}
	return SolaceCloudBaseURL
}

func (c *CloudClient) url(elems []string) (string, error) {
	path, err := ComposePath(append([]string{c.baseURL}, elems...)...)
	if err != nil {
		return "", err
	}
	return path, nil
}

// do returns the decoded body of a 200, 201 or 202 answer.
func (c *CloudClient) do(ctx context.Context, op, method string, elems []string, payload interface{}) (map[string]interface{}, error) {
	u, err := c.url(elems)
	if err != nil {
		return nil, err
	}
	var body []byte
	contentType := ""
	if payload != nil {
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("unable to encode request body: %w", err)
		}
		contentType = "application/json"
	}
	r := request{api: apiSolaceCloud, op: op, method: method, url: u, body: body, contentType: contentType}
	resp, err := c.t.do(ctx, r)
	if err != nil {
		return nil, err
	}
	switch resp.statusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
	default:
		return nil, c.t.apiError(ctx, r, resp)
	}
	decoded, err := decodeJSONObject(resp.body)
	if err != nil {
		return nil, fmt.Errorf("unable to decode response of %s %s: %w", method, u, err)
	}
	return decoded, nil
}

// IsCloudNotFound reports whether err is a Solace Cloud 404.
func IsCloudNotFound(err error) bool {
	var apiErr *ApiError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Get reads the object at elems. A 404 is reported as not found.
func (c *CloudClient) Get(ctx context.Context, elems ...string) (GetResult, error) {
	body, err := c.do(ctx, OpReadObject, http.MethodGet, elems, nil)
	if IsCloudNotFound(err) {
		return NotFound(), nil
	}
	if err != nil {
		return GetResult{}, err
	}
	return Found(dataObject(body)), nil
}

// GetList reads an unpaged collection.
func (c *CloudClient) GetList(ctx context.Context, elems ...string) ([]Settings, error) {
	body, err := c.do(ctx, OpReadObjectList, http.MethodGet, elems, nil)
	if err != nil {
		return nil, err
	}
	var items []Settings
	for _, d := range dataList(body) {
		if m, ok := d.(map[string]interface{}); ok {
			items = append(items, m)
		}
	}
	return items, nil
}

// ServiceRequest posts a change request for a service and waits for it to
// complete. The response data of the final poll is returned.
func (c *CloudClient) ServiceRequest(ctx context.Context, op, serviceID string, elems []string, body Settings) (Settings, error) {
	path := append([]string{CloudServices, serviceID}, elems...)
	resp, err := c.do(ctx, op, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	data := dataObject(resp)
	requestID := stringValue(data, "id")
	if requestID == "" {
		return nil, fmt.Errorf("response of %s request has no request id: %v", op, data)
	}
	if stringValue(data, "adminProgress") == jobCompleted {
		return data, nil
	}
	return c.WaitForRequest(ctx, op, serviceID, requestID)
}

// WaitForRequest polls services/{serviceID}/requests/{requestID} until its
// adminProgress is completed or failed.
func (c *CloudClient) WaitForRequest(ctx context.Context, op, serviceID, requestID string) (Settings, error) {
	return c.poll(ctx, op, requestID, func() (Settings, string, bool, error) {
		res, err := c.Get(ctx, CloudServices, serviceID, CloudRequests, requestID)
		if err != nil {
			return nil, "", false, err
		}
		if !res.Found {
			return nil, "", false, fmt.Errorf("solace cloud request %s of service %s not found", requestID, serviceID)
		}
		return res.Settings, stringValue(res.Settings, "adminProgress"), false, nil
	})
}

// poll calls check every poll interval until it reports a final state, gone,
// or the poll budget is spent.
func (c *CloudClient) poll(ctx context.Context, op, id string, check func() (data Settings, state string, gone bool, err error)) (Settings, error) {
	log := ctrl.LoggerFrom(ctx)
	var (
		data  Settings
		state string
	)
	for i := 0; i < c.pollRetries; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.clock.Sleep(c.pollInterval)
		c.metrics.observePoll(op)

		var gone bool
		var err error
		data, state, gone, err = check()
		if err != nil {
			return nil, err
		}
		if gone {
			return Settings{}, nil
		}
		log.V(1).Info("polled solace cloud job", "op", op, "id", id, "state", state, "poll", i+1)
		switch state {
		case jobCompleted:
			return data, nil
		case jobFailed:
			return nil, &JobError{Module: ModuleFrom(ctx), Op: op, ID: id, State: state, Data: data}
		}
	}
	return nil, &JobError{Module: ModuleFrom(ctx), Op: op, ID: id, State: fmt.Sprintf("%s (timed out after %d polls)", state, c.pollRetries), Data: data}
}

// GetService reads services/{serviceID}.
func (c *CloudClient) GetService(ctx context.Context, serviceID string) (GetResult, error) {
	return c.Get(ctx, CloudServices, serviceID)
}

// FindServiceByName looks the name up in the list of services and reads the
// full service of the first match.
func (c *CloudClient) FindServiceByName(ctx context.Context, name string) (GetResult, error) {
	services, err := c.GetList(ctx, CloudServices)
	if err != nil {
		return GetResult{}, err
	}
	for _, s := range services {
		if stringValue(s, "name") != name {
			continue
		}
		id := stringValue(s, "serviceId")
		if id == "" {
			return GetResult{}, fmt.Errorf("service %q in list of services has no serviceId", name)
		}
		return c.GetService(ctx, id)
	}
	return NotFound(), nil
}

// CreateService posts a new service and waits until its creationState is
// completed. A service that ends up failed is deleted and created again, at
// most serviceCreateRetries times.
func (c *CloudClient) CreateService(ctx context.Context, settings Settings) (Settings, error) {
	log := ctrl.LoggerFrom(ctx)
	for attempt := 0; ; attempt++ {
		resp, err := c.do(ctx, OpCreateObject, http.MethodPost, []string{CloudServices}, settings)
		if err != nil {
			return nil, err
		}
		serviceID := stringValue(dataObject(resp), "serviceId")
		if serviceID == "" {
			return nil, fmt.Errorf("response of service create has no serviceId: %v", dataObject(resp))
		}

		data, err := c.waitForService(ctx, serviceID)
		if err == nil {
			return data, nil
		}
		var jobErr *JobError
		if !errors.As(err, &jobErr) || jobErr.State != jobFailed || attempt >= serviceCreateRetries {
			return nil, err
		}
		log.Info("service creation failed, deleting and creating it again", "serviceId", serviceID, "attempt", attempt+1)
		if _, err := c.DeleteService(ctx, serviceID); err != nil {
			return nil, fmt.Errorf("unable to delete failed service %s: %w", serviceID, err)
		}
	}
}

func (c *CloudClient) waitForService(ctx context.Context, serviceID string) (Settings, error) {
	return c.poll(ctx, OpCreateObject, serviceID, func() (Settings, string, bool, error) {
		res, err := c.GetService(ctx, serviceID)
		if err != nil {
			return nil, "", false, err
		}
		if !res.Found {
			return nil, "", false, fmt.Errorf("service %s disappeared while being created", serviceID)
		}
		return res.Settings, stringValue(res.Settings, "creationState"), false, nil
	})
}

// DeleteService deletes a service and waits until it is gone.
func (c *CloudClient) DeleteService(ctx context.Context, serviceID string) (Settings, error) {
	resp, err := c.do(ctx, OpDeleteObject, http.MethodDelete, []string{CloudServices, serviceID}, nil)
	if IsCloudNotFound(err) {
		return Settings{}, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := c.poll(ctx, OpDeleteObject, serviceID, func() (Settings, string, bool, error) {
		res, err := c.GetService(ctx, serviceID)
		if err != nil {
			return nil, "", false, err
		}
		// keep polling until the service is gone, whatever its state
		return res.Settings, "", !res.Found, nil
	}); err != nil {
		return nil, err
	}
	return dataObject(resp), nil
}
