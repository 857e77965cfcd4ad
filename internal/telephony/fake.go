package telephony

import (
	"context"
	"fmt"
	"sync"
)

// FakeProvider records placed calls for tests. FailNext makes the next
// PlaceCall fail synchronously, simulating a provider rejection before any
// call exists.
type FakeProvider struct {
	mu       sync.Mutex
	placed   []PlaceCallRequest
	failNext int
	seq      int
}

func NewFakeProvider() *FakeProvider { return &FakeProvider{} }

func (p *FakeProvider) Name() string { return "fake" }

func (p *FakeProvider) HealthCheck(ctx context.Context) error { return nil }

func (p *FakeProvider) PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNext > 0 {
		p.failNext--
		return PlaceCallResult{}, fmt.Errorf("fake provider: dial rejected")
	}
	p.seq++
	p.placed = append(p.placed, req)
	return PlaceCallResult{ProviderCallID: fmt.Sprintf("FAKE%04d", p.seq)}, nil
}

func (p *FakeProvider) FailNext(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext = n
}

func (p *FakeProvider) Placed() []PlaceCallRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PlaceCallRequest, len(p.placed))
	copy(out, p.placed)
	return out
}
