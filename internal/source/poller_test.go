// internal/source/poller_test.go
package source

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/afroash/smart-planter/internal/models"
)

// fakeSource returns queued results in order, repeating the last one
type fakeSource struct {
	mu     sync.Mutex
	plants []*models.Plant
	errs   []error
	calls  int
}

func (f *fakeSource) Load(ctx context.Context) (*models.Plant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.calls
	if i >= len(f.plants) {
		i = len(f.plants) - 1
	}
	f.calls++
	if f.errs[i] != nil {
		return nil, f.errs[i]
	}
	// hand out a copy, as a real source would
	p := *f.plants[i]
	p.TrendData = append([]models.Sample(nil), f.plants[i].TrendData...)
	return &p, nil
}

func (f *fakeSource) Name() string { return "fake" }

type recordingSink struct {
	mu     sync.Mutex
	plants []*models.Plant
}

func (r *recordingSink) push(plantID string, p *models.Plant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plants = append(r.plants, p)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plants)
}

func TestPoller_PollPushesOnlyChanges(t *testing.T) {
	first := &models.Plant{Name: "Basil", WaterLevel: 40}
	second := &models.Plant{Name: "Basil", WaterLevel: 80}
	src := &fakeSource{
		plants: []*models.Plant{first, first, second, nil},
		errs:   []error{nil, nil, nil, errors.New("disk unplugged")},
	}
	sink := &recordingSink{}
	p := NewPoller(src, sink.push, PollerConfig{PlantID: "planter-01", Interval: time.Hour}, zerolog.Nop())

	var failures int
	p.OnError = func(plantID string, err error) {
		failures++
		if plantID != "planter-01" {
			t.Errorf("OnError plantID = %q", plantID)
		}
	}

	ctx := context.Background()
	if !p.Poll(ctx) {
		t.Error("first poll should push")
	}
	if p.Poll(ctx) {
		t.Error("unchanged snapshot should not push")
	}
	if !p.Poll(ctx) {
		t.Error("changed snapshot should push")
	}
	if p.Poll(ctx) {
		t.Error("failed load should not push")
	}

	if sink.count() != 2 {
		t.Errorf("sink received %d snapshots, want 2", sink.count())
	}
	if failures != 1 {
		t.Errorf("OnError called %d times, want 1", failures)
	}

	stats := p.Stats()
	if stats.TotalLoads != 4 || stats.TotalPushed != 2 || stats.TotalErrors != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.LastError != "disk unplugged" {
		t.Errorf("LastError = %q", stats.LastError)
	}
}

func TestPoller_StartLoadsImmediately(t *testing.T) {
	src := &fakeSource{
		plants: []*models.Plant{{Name: "Mint", WaterLevel: 60}},
		errs:   []error{nil},
	}
	sink := &recordingSink{}
	p := NewPoller(src, sink.push, PollerConfig{PlantID: "planter-01", Interval: time.Hour}, zerolog.Nop())

	p.Start()
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if sink.count() != 1 {
		t.Fatalf("sink received %d snapshots, want 1", sink.count())
	}
}

func TestPoller_StopIsIdempotent(t *testing.T) {
	src := &fakeSource{plants: []*models.Plant{{Name: "Mint"}}, errs: []error{nil}}
	p := NewPoller(src, func(string, *models.Plant) {}, PollerConfig{PlantID: "p", Interval: 10 * time.Millisecond}, zerolog.Nop())

	p.Start()
	time.Sleep(50 * time.Millisecond)
	p.Stop()
	p.Stop()

	if p.Stats().TotalLoads < 2 {
		t.Errorf("TotalLoads = %d, want at least 2", p.Stats().TotalLoads)
	}
}

func TestNewPoller_InvalidInterval(t *testing.T) {
	src := &fakeSource{plants: []*models.Plant{{Name: "Mint"}}, errs: []error{nil}}
	p := NewPoller(src, func(string, *models.Plant) {}, PollerConfig{PlantID: "p"}, zerolog.Nop())

	if p.interval != 30*time.Second {
		t.Errorf("interval = %v, want 30s default", p.interval)
	}
}
