package rto

import (
	"context"
	"sync"

	"rtoflow/internal/core/apperror"
)

// stubPlatform is a hand-written Platform for package-internal tests.
type stubPlatform struct {
	mu     sync.Mutex
	calls  map[string]int
	orders map[string]*OrderSnapshot

	findErr      error
	fulfillments func(orderID string) ([]ReturnableFulfillment, error)
	createReturn func(req ReturnRequest) (*OpenedReturn, error)
	snapshot     func(returnID, orderID string) (*ReturnSnapshot, error)
	process      func(req ProcessRequest) (string, error)
}

func (s *stubPlatform) record(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[name]++
}

func (s *stubPlatform) FindOrderByName(_ context.Context, name string) (*OrderSnapshot, error) {
	s.record("FindOrderByName")
	if s.findErr != nil {
		return nil, s.findErr
	}
	if o, ok := s.orders[name]; ok {
		return o, nil
	}
	return nil, apperror.NewNotFound("order", name)
}

func (s *stubPlatform) ReturnableFulfillments(_ context.Context, orderID string) ([]ReturnableFulfillment, error) {
	s.record("ReturnableFulfillments")
	return s.fulfillments(orderID)
}

func (s *stubPlatform) CreateReturn(_ context.Context, req ReturnRequest) (*OpenedReturn, error) {
	s.record("CreateReturn")
	return s.createReturn(req)
}

func (s *stubPlatform) LoadReturnSnapshot(_ context.Context, returnID, orderID string) (*ReturnSnapshot, error) {
	s.record("LoadReturnSnapshot")
	return s.snapshot(returnID, orderID)
}

func (s *stubPlatform) ProcessReturn(_ context.Context, req ProcessRequest) (string, error) {
	s.record("ProcessReturn")
	return s.process(req)
}
