package controllers

import (
	"errors"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/internal"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

// Session hands out the api clients of one task. Clients are built on first
// use so that a task only needs the connection parameters of the apis it
// talks to.
type Session struct {
	Config    topology.TaskConfig
	Options   sempclient.Options
	CheckMode bool
	// Keys excluded from the diff on top of those of the task kind.
	Whitelist internal.Whitelist

	ClientFactory      sempclient.Factory
	CloudClientFactory sempclient.CloudFactory

	broker *sempclient.Client
	cloud  *sempclient.CloudClient
}

func (s *Session) Broker() (*sempclient.Client, error) {
	if s.broker != nil {
		return s.broker, nil
	}
	factory := s.ClientFactory
	if factory == nil {
		factory = sempclient.ClientFactory
	}
	c, err := factory(s.Config, s.Options)
	if err != nil {
		return nil, err
	}
	s.broker = c
	return c, nil
}

func (s *Session) Cloud() (*sempclient.CloudClient, error) {
	if s.cloud != nil {
		return s.cloud, nil
	}
	factory := s.CloudClientFactory
	if factory == nil {
		factory = sempclient.CloudClientFactory
	}
	c, err := factory(s.Config, s.Options)
	if err != nil {
		return nil, err
	}
	s.cloud = c
	return c, nil
}

// ServiceID is the Solace Cloud service the task works on.
func (s *Session) ServiceID() (string, error) {
	if s.Config.SolaceCloudServiceID == "" {
		return "", newValidationError(errors.New("connection.solace_cloud_service_id is required for Solace Cloud service tasks"))
	}
	return s.Config.SolaceCloudServiceID, nil
}
