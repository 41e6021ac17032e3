package infra

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestHTTPServerShutdownStopsStart(t *testing.T) {
	cfg := &Config{Port: "0", HTTPReadTimeout: time.Second, HTTPWriteTimeout: time.Second, HTTPIdleTimeout: time.Second}
	server := NewHTTPServer(cfg, http.NotFoundHandler())
	if server.Addr() != ":0" {
		t.Fatalf("unexpected addr %q", server.Addr())
	}

	done := make(chan error, 1)
	go func() { done <- server.Start() }()
	time.Sleep(50 * time.Millisecond)

	if err := server.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned %v after shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after shutdown")
	}
}
