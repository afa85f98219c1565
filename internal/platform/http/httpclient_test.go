package http

import (
	nethttp "net/http"
	"testing"
	"time"
)

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	c := NewHTTPClient(7 * time.Second)
	if c.Timeout != 7*time.Second {
		t.Errorf("expected timeout 7s, got %v", c.Timeout)
	}
	tr, ok := c.Transport.(*nethttp.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", c.Transport)
	}
	if tr.MaxIdleConnsPerHost != 10 {
		t.Errorf("expected MaxIdleConnsPerHost 10, got %d", tr.MaxIdleConnsPerHost)
	}
	if tr.ResponseHeaderTimeout != 7*time.Second {
		t.Errorf("expected ResponseHeaderTimeout 7s, got %v", tr.ResponseHeaderTimeout)
	}
}
