package controllers

import (
	"context"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/internal"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

// sempList implements the SEMP v2 side of a ListAdapter for members of a
// config collection keyed by keyAttr.
type sempList struct {
	module  string
	keyAttr string
}

func (l sempList) Module() string {
	return l.module
}

func (l sempList) KeyFunc(_ *topology.Task, name string) string {
	return name
}

func validateListTask(task *topology.Task) error {
	return newValidationError(task.ValidateListTask())
}

func (l sempList) list(ctx context.Context, s *Session, collection []string) ([]ListEntry, error) {
	c, err := s.Broker()
	if err != nil {
		return nil, err
	}
	items, err := c.GetObjectList(ctx, sempclient.ConfigAPI, collection, sempclient.ListQuery{})
	if err != nil {
		return nil, err
	}
	entries := make([]ListEntry, 0, len(items))
	for _, item := range items {
		key, _ := item.Data[l.keyAttr].(string)
		if key == "" {
			continue
		}
		entries = append(entries, ListEntry{Key: key, Settings: item.Data})
	}
	return entries, nil
}

func (l sempList) create(ctx context.Context, s *Session, collection []string, key string, settings internal.Settings) (interface{}, error) {
	c, err := s.Broker()
	if err != nil {
		return nil, err
	}
	return c.CreateObject(ctx, collection, withKey(settings, l.keyAttr, key))
}

func (l sempList) delete(ctx context.Context, s *Session, collection []string, key string) (interface{}, error) {
	c, err := s.Broker()
	if err != nil {
		return nil, err
	}
	return c.DeleteObject(ctx, child(collection, key))
}
