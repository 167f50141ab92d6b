package platform

import (
	"github.com/vellumkit/vellum/pkg/core"
)

// New builds a post Service for the content directory at dir, wiring up
// the storage adapter and running its initialization.
//
//	svc, err := vellum.New("./content", vellum.WithVersioning(false))
func New(dir string, opts ...Option) (*core.Service, error) {
	repo, err := Init(dir, opts...)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	service := core.NewService(repo)
	if size, ok := o.config["event_buffer"].(int); ok {
		service.SetEventBuffer(size)
	}

	return service, nil
}
