package fhirtests

import (
	"errors"

	"github.com/sprinkler-fhir/sprinkler/fhirclient"
)

const (
	DefaultPageSize     = 30
	DefaultResourceType = "Patient"
)

// Environment is what the test modules need to know about the server under test. One is
// created for each module run.
type Environment struct {
	Client *fhirclient.Client
	// PageSize is the _count used by the paging tests.
	PageSize int
	// ResourceType is the type whose history the paging tests walk through.
	ResourceType string
}

// NewEnvironment returns an Environment with default paging parameters.
func NewEnvironment(client *fhirclient.Client) (*Environment, error) {
	if client == nil {
		return nil, errors.New("an Environment needs a client")
	}
	return &Environment{Client: client, PageSize: DefaultPageSize, ResourceType: DefaultResourceType}, nil
}

func (e *Environment) Close() error {
	e.Client.CloseIdleConnections()
	return nil
}
