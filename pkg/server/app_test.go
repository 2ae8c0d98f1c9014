package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"VolServe/pkg/config"
	xhttp "VolServe/pkg/http"
)

type fakeBackground struct {
	mu      sync.Mutex
	started bool
	stopped bool
}

func (f *fakeBackground) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
}

func (f *fakeBackground) Stop(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Server.ShutdownTimeout = 2 * time.Second

	srv := xhttp.NewServer(nil, nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0), xhttp.WithMetrics("", nil))
	app := New(cfg, nil, srv)
	bg := &fakeBackground{}
	app.AddBackground(bg)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}

	bg.mu.Lock()
	defer bg.mu.Unlock()
	if !bg.started || !bg.stopped {
		t.Fatalf("background started=%v stopped=%v", bg.started, bg.stopped)
	}
}
