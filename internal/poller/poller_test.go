package poller

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"renttrack/internal/model"
	"renttrack/internal/store"
)

type countingGateway struct {
	mu    sync.Mutex
	loads int
}

func (g *countingGateway) Load(_ context.Context) (*model.Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loads++
	return &model.Document{
		Properties:  []model.Property{{ID: "p1", Address: "loaded"}},
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (g *countingGateway) Save(_ context.Context, props []model.Property) (*model.Document, error) {
	return &model.Document{Properties: props}, nil
}

func (g *countingGateway) Clear(_ context.Context) error { return nil }
func (g *countingGateway) Close() error                  { return nil }

func (g *countingGateway) loadCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loads
}

func TestRunReloadsOnTick(t *testing.T) {
	gw := &countingGateway{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New(gw, log)
	p := New(st, 10*time.Millisecond, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for gw.loadCount() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 reloads, got %d", gw.loadCount())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancel")
	}

	props, _ := st.Snapshot()
	if len(props) != 1 || props[0].Address != "loaded" {
		t.Errorf("store not refreshed: %+v", props)
	}
}
