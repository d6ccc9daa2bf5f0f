package controllers

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

// QueryReconciler runs a read only task kind. It never reports a change and
// runs unchanged in check mode.
type QueryReconciler struct {
	module   string
	validate func(task *topology.Task) error
	query    func(ctx context.Context, s *Session, task *topology.Task) (*topology.Result, error)
}

func (r *QueryReconciler) Module() string {
	return r.module
}

func (r *QueryReconciler) Reconcile(ctx context.Context, s *Session, task *topology.Task) (*topology.Result, error) {
	if r.validate != nil {
		if err := r.validate(task); err != nil {
			return nil, err
		}
	}
	return r.query(ctx, s, task)
}

func NewSempVersionReconciler() *QueryReconciler {
	return &QueryReconciler{
		module: "semp_version",
		query: func(ctx context.Context, s *Session, _ *topology.Task) (*topology.Result, error) {
			c, err := s.Broker()
			if err != nil {
				return nil, err
			}
			version, err := c.GetSempVersion(ctx)
			if err != nil {
				return nil, err
			}
			result := topology.NewResult(false)
			result.Response = map[string]interface{}{"semp_version": version}
			return result, nil
		},
	}
}

type getListParams struct {
	// config or monitor, defaults to config.
	API    string   `json:"api"`
	Path   []string `json:"path"`
	Select []string `json:"select"`
	Where  []string `json:"where"`
	// Page size.
	Count int `json:"count"`
}

func decodeGetListParams(task *topology.Task) (getListParams, error) {
	var p getListParams
	if err := decodeParams(task, &p); err != nil {
		return p, err
	}
	if p.API == "" {
		p.API = string(sempclient.ConfigAPI)
	}
	var allErrs field.ErrorList
	path := field.NewPath("task", "params")
	switch sempclient.API(p.API) {
	case sempclient.ConfigAPI, sempclient.MonitorAPI:
	default:
		allErrs = append(allErrs, field.NotSupported(path.Child("api"), p.API,
			[]string{string(sempclient.ConfigAPI), string(sempclient.MonitorAPI)}))
	}
	if len(p.Path) == 0 {
		allErrs = append(allErrs, field.Required(path.Child("path"), "collection path, e.g. [msgVpns, default, queues]"))
	}
	if p.Count < 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("count"), p.Count, "must not be negative"))
	}
	return p, newValidationError(allErrs.ToAggregate())
}

// NewGetListReconciler returns the SEMP v2 collection query. Every page is
// read; the items are returned as {data, collections} pairs.
func NewGetListReconciler() *QueryReconciler {
	return &QueryReconciler{
		module: "get_list",
		validate: func(task *topology.Task) error {
			_, err := decodeGetListParams(task)
			return err
		},
		query: func(ctx context.Context, s *Session, task *topology.Task) (*topology.Result, error) {
			p, err := decodeGetListParams(task)
			if err != nil {
				return nil, err
			}
			c, err := s.Broker()
			if err != nil {
				return nil, err
			}
			items, err := c.GetObjectList(ctx, sempclient.API(p.API), p.Path,
				sempclient.ListQuery{Count: p.Count, Select: p.Select, Where: p.Where})
			if err != nil {
				return nil, err
			}
			list := make([]interface{}, 0, len(items))
			for _, item := range items {
				list = append(list, item)
			}
			return topology.NewListResult(list), nil
		},
	}
}

type getListV1Params struct {
	// Complete <rpc> request document.
	RPC      string   `json:"rpc"`
	ListPath []string `json:"list_path"`
}

func decodeGetListV1Params(task *topology.Task) (getListV1Params, error) {
	var p getListV1Params
	if err := decodeParams(task, &p); err != nil {
		return p, err
	}
	var allErrs field.ErrorList
	path := field.NewPath("task", "params")
	if p.RPC == "" {
		allErrs = append(allErrs, field.Required(path.Child("rpc"), "SEMP v1 rpc document"))
	}
	if len(p.ListPath) == 0 {
		allErrs = append(allErrs, field.Required(path.Child("list_path"), "path of the list elements in the reply"))
	}
	return p, newValidationError(allErrs.ToAggregate())
}

// NewGetListV1Reconciler returns the SEMP v1 list query, following
// more-cookies across pages.
func NewGetListV1Reconciler() *QueryReconciler {
	return &QueryReconciler{
		module: "get_list_v1",
		validate: func(task *topology.Task) error {
			_, err := decodeGetListV1Params(task)
			return err
		},
		query: func(ctx context.Context, s *Session, task *topology.Task) (*topology.Result, error) {
			p, err := decodeGetListV1Params(task)
			if err != nil {
				return nil, err
			}
			c, err := s.Broker()
			if err != nil {
				return nil, err
			}
			list, err := c.GetListV1(ctx, p.RPC, p.ListPath)
			if err != nil {
				return nil, err
			}
			return topology.NewListResult(list), nil
		},
	}
}

// NewCloudGetServicesReconciler lists the services of the Solace Cloud
// account.
func NewCloudGetServicesReconciler() *QueryReconciler {
	return &QueryReconciler{
		module: "cloud_get_services",
		query: func(ctx context.Context, s *Session, _ *topology.Task) (*topology.Result, error) {
			c, err := s.Cloud()
			if err != nil {
				return nil, err
			}
			services, err := c.GetList(ctx, sempclient.CloudServices)
			if err != nil {
				return nil, fmt.Errorf("unable to list solace cloud services: %w", err)
			}
			list := make([]interface{}, 0, len(services))
			for _, svc := range services {
				list = append(list, svc)
			}
			return topology.NewListResult(list), nil
		},
	}
}
