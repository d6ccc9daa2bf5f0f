package controllers

import (
	"context"

	"k8s.io/apimachinery/pkg/util/validation/field"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/internal"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

// sempObject implements the SEMP v2 side of an ObjectAdapter for objects
// living at {collection}/{name}: created with POST on the collection, read,
// patched and deleted on the object.
type sempObject struct {
	module    string
	keyAttr   string
	whitelist internal.Whitelist
}

func newSempObject(module, keyAttr string, whitelistKeys ...string) sempObject {
	return sempObject{
		module:    module,
		keyAttr:   keyAttr,
		whitelist: internal.NewWhitelist(internal.DefaultWhitelistKeys, whitelistKeys),
	}
}

func (o sempObject) Kind() ObjectKind {
	return ObjectKind{
		Module:        o.module,
		DesiredTarget: internal.BrokerTarget,
		CurrentTarget: internal.BrokerTarget,
		Whitelist:     o.whitelist,
	}
}

func validateNamedObject(task *topology.Task) error {
	return newValidationError(task.ValidateObjectTask(true))
}

func (o sempObject) get(ctx context.Context, s *Session, collection []string, name string) (sempclient.GetResult, error) {
	c, err := s.Broker()
	if err != nil {
		return sempclient.GetResult{}, err
	}
	return c.GetObject(ctx, child(collection, name)...)
}

func (o sempObject) create(ctx context.Context, s *Session, collection []string, name string, settings internal.Settings) (interface{}, error) {
	c, err := s.Broker()
	if err != nil {
		return nil, err
	}
	return c.CreateObject(ctx, collection, withKey(settings, o.keyAttr, name))
}

func (o sempObject) update(ctx context.Context, s *Session, collection []string, name string, settings internal.Settings) (interface{}, error) {
	c, err := s.Broker()
	if err != nil {
		return nil, err
	}
	return c.UpdateObject(ctx, child(collection, name), settings)
}

func (o sempObject) delete(ctx context.Context, s *Session, collection []string, name string) (interface{}, error) {
	c, err := s.Broker()
	if err != nil {
		return nil, err
	}
	return c.DeleteObject(ctx, child(collection, name))
}

// vpnCollection returns msgVpns/{vpn}/{collection}.
func vpnCollection(task *topology.Task, collection string) []string {
	return []string{"msgVpns", msgVpn(task), collection}
}

// requireParam reports an empty kind specific param.
func requireParam(name, value string) error {
	if value != "" {
		return nil
	}
	return newValidationError(field.ErrorList{field.Required(field.NewPath("task", "params", name), "")}.ToAggregate())
}

func child(collection []string, name string) []string {
	path := make([]string, 0, len(collection)+1)
	return append(append(path, collection...), name)
}
