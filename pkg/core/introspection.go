package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	EventBufferSize int    `json:"event_buffer_size"`
	RepositoryType  string `json:"repository_type"`

	// Capability flags reflect what the underlying adapter supports.
	Transactional bool `json:"transactional"`
	Watchable     bool `json:"watchable"`
	Reconcilable  bool `json:"reconcilable"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := ServiceState{
		EventBufferSize: s.eventBufferSize,
		RepositoryType:  "unknown",
	}
	if s.repo != nil {
		state.RepositoryType = "repository"
		if comp, ok := s.repo.(introspection.Component); ok {
			state.RepositoryType = comp.ComponentType()
		}
		_, state.Transactional = s.repo.(Transactional)
		_, state.Watchable = s.repo.(Watchable)
		_, state.Reconcilable = s.repo.(Reconciler)
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "post-service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
