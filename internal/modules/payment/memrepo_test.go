package payment

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// memRepo is an in-memory Repository. A single mutex stands in for the row lock.
type memRepo struct {
	mu        sync.Mutex
	byRef     map[string]*PaymentRecord
	createErr error
	deleteErr error
}

func newMemRepo() *memRepo {
	return &memRepo{byRef: map[string]*PaymentRecord{}}
}

func (m *memRepo) Create(ctx context.Context, p *PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if err := validateRecord(p); err != nil {
		return err
	}
	if _, ok := m.byRef[p.ReferenceNumber]; ok {
		return ErrDuplicateReference
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	m.byRef[p.ReferenceNumber] = &cp
	return nil
}

func (m *memRepo) GetByReference(ctx context.Context, ref string) (*PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byRef[ref]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) GetByRequestID(ctx context.Context, requestID string) (*PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.findByRequestID(requestID); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *memRepo) findByRequestID(requestID string) *PaymentRecord {
	for _, p := range m.byRef {
		if p.PaymentRequestID != "" && p.PaymentRequestID == requestID {
			return p
		}
	}
	return nil
}

func (m *memRepo) UpdateByReference(ctx context.Context, ref string, mutate MutateFunc) (*PaymentRecord, error) {
	return m.update(func() *PaymentRecord { return m.byRef[ref] }, mutate)
}

func (m *memRepo) UpdateByRequestID(ctx context.Context, requestID string, mutate MutateFunc) (*PaymentRecord, error) {
	return m.update(func() *PaymentRecord { return m.findByRequestID(requestID) }, mutate)
}

func (m *memRepo) update(find func() *PaymentRecord, mutate MutateFunc) (*PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := find()
	if stored == nil {
		return nil, ErrNotFound
	}
	before := *stored
	rec := *stored
	changed, err := mutate(&rec)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &before, nil
	}
	if err := validateMutation(&before, &rec); err != nil {
		return nil, err
	}
	if other := m.findByRequestID(rec.PaymentRequestID); other != nil && other.ID != rec.ID {
		return nil, ErrInvariant
	}
	rec.UpdatedAt = time.Now().UTC()
	m.byRef[rec.ReferenceNumber] = &rec
	out := rec
	return &out, nil
}

func (m *memRepo) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.byRef[ref]; !ok {
		return ErrNotFound
	}
	delete(m.byRef, ref)
	return nil
}

func (m *memRepo) CancelStale(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.byRef {
		if p.Status == StatusPending && p.CheckoutURL == "" && p.CreatedAt.Before(cutoff) {
			p.Status = StatusCancelled
			p.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

func (m *memRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byRef)
}

// fakeGateway records requests and answers with CreateFunc.
type fakeGateway struct {
	mu         sync.Mutex
	requests   []*GatewayRequest
	CreateFunc func(ctx context.Context, req *GatewayRequest) (*GatewayResponse, error)
}

func (g *fakeGateway) CreatePaymentRequest(ctx context.Context, req *GatewayRequest) (*GatewayResponse, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	if g.CreateFunc != nil {
		return g.CreateFunc(ctx, req)
	}
	return &GatewayResponse{ID: "pr_" + req.ReferenceNumber, URL: "https://pay/" + req.ReferenceNumber}, nil
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
