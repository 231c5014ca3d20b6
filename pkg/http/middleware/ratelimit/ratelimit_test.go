package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strconv"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestAllow(t *testing.T) {
	l := New(rate.Every(time.Second), 2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d within burst rejected", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("request over burst allowed")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("other client limited by the first")
	}

	now = now.Add(time.Second)
	if !l.Allow("10.0.0.1") {
		t.Error("request after refill rejected")
	}
}

func TestAllowForgetsIdleClients(t *testing.T) {
	l := New(rate.Every(time.Hour), 1, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.1")
	now = now.Add(2 * time.Minute)
	l.Allow("10.0.0.2")

	if _, ok := l.visitors["10.0.0.1"]; ok {
		t.Error("idle client not evicted")
	}
}

func TestHandler(t *testing.T) {
	l := New(rate.Every(time.Hour), 1, time.Minute)
	h := l.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/users/user/login/a/b", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [204 429]", codes)
	}
}

func TestHandlerIgnoresForwardedForFromUntrustedPeers(t *testing.T) {
	l := New(rate.Every(time.Hour), 5, time.Minute)
	h := l.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	limited := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/users/user/login/a/b", nil)
		req.RemoteAddr = "198.51.100.7:40000"
		req.Header.Set("X-Forwarded-For", "10.0.0."+strconv.Itoa(i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}

	if limited != 15 {
		t.Errorf("limited requests = %d, want 15 after a burst of 5", limited)
	}
}

func TestHandlerKeysOnForwardedForBehindTrustedProxy(t *testing.T) {
	proxy := netip.MustParsePrefix("10.0.0.0/8")
	l := New(rate.Every(time.Hour), 1, time.Minute, proxy)
	h := l.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.1.2.3:40000"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		return rec.Code
	}

	if code := send("203.0.113.9"); code != http.StatusNoContent {
		t.Fatalf("first request = %d, want 204", code)
	}
	if code := send("192.0.2.55, 203.0.113.9"); code != http.StatusTooManyRequests {
		t.Errorf("spoofed left-most hop = %d, want 429 for the same client", code)
	}
	if code := send("198.51.100.4"); code != http.StatusNoContent {
		t.Errorf("other client = %d, want 204", code)
	}
}
