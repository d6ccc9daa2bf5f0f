package controllers

import (
	"sort"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Registry maps task kinds to their reconciler.
type Registry map[string]TaskReconciler

// Kinds talking to the Solace Cloud api. Their connection defaults differ.
var cloudKinds = sets.New[string](
	"cloud_client_profile",
	"cloud_service",
	"cloud_service_hostnames",
	"cloud_get_services",
)

// NewRegistry returns every built in task kind.
func NewRegistry() Registry {
	r := Registry{}
	r.Register(NewSempVersionReconciler())
	r.Register(&ObjectReconciler{Adapter: NewVpnReconciler()})
	r.Register(&ObjectReconciler{Adapter: NewQueueReconciler()})
	r.Register(&ObjectReconciler{Adapter: NewAclProfileReconciler()})
	r.Register(&ObjectReconciler{Adapter: NewClientProfileReconciler()})
	r.Register(&ObjectReconciler{Adapter: NewClientUsernameReconciler()})
	r.Register(&ListReconciler{Adapter: NewQueueSubscriptionsReconciler()})
	r.Register(&ListReconciler{Adapter: NewBridgeRemoteSubscriptionsReconciler()})
	r.Register(&ListReconciler{Adapter: NewAclClientConnectExceptionsReconciler()})
	r.Register(NewGetListReconciler())
	r.Register(NewGetListV1Reconciler())
	r.Register(&ObjectReconciler{Adapter: NewCloudClientProfileReconciler()})
	r.Register(&ObjectReconciler{Adapter: NewCloudServiceReconciler()})
	r.Register(&ListReconciler{Adapter: NewCloudServiceHostnamesReconciler()})
	r.Register(NewCloudGetServicesReconciler())
	return r
}

func (r Registry) Register(rec TaskReconciler) {
	r[rec.Module()] = rec
}

func (r Registry) Kinds() []string {
	kinds := make([]string, 0, len(r))
	for k := range r {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func IsCloudKind(kind string) bool {
	return cloudKinds.Has(kind)
}
