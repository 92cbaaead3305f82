package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goliatone/go-crudform/pkg/auth"
)

func TestResolve(t *testing.T) {
	client, err := New(WithBaseURL("https://erp.example.com/tenant/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cases := map[string]string{
		"/api/config/invoice/sales": "https://erp.example.com/tenant/api/config/invoice/sales",
		"api/sales?limit=5":         "https://erp.example.com/tenant/api/sales?limit=5",
		"http://other/api/x":        "http://other/api/x",
	}
	for in, want := range cases {
		got, err := client.Resolve(in)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("Resolve(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolve_WithoutBaseURL(t *testing.T) {
	client, _ := New()
	if _, err := client.Resolve("/api/sales"); !errors.Is(err, ErrNoBaseURL) {
		t.Fatalf("expected ErrNoBaseURL, got %v", err)
	}
	if got, err := client.Resolve("https://x/api"); err != nil || got != "https://x/api" {
		t.Fatalf("absolute endpoint should resolve without base, got %q %v", got, err)
	}
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	if _, err := New(WithBaseURL("ftp://example.com")); err == nil {
		t.Fatalf("expected scheme error")
	}
}

func TestDo_AttachesBearerAndJSONBody(t *testing.T) {
	var gotAuth, gotType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":1}}`))
	}))
	defer server.Close()

	client, err := New(WithBaseURL(server.URL), WithTokenSource(auth.StaticToken("tok")))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := client.Do(context.Background(), http.MethodPost, "/api/sales", map[string]any{"name": "A"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !resp.OK() || resp.Status != http.StatusCreated {
		t.Fatalf("unexpected status %d", resp.Status)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotType != "application/json" {
		t.Fatalf("unexpected content type %q", gotType)
	}
	if gotBody != `{"name":"A"}` {
		t.Fatalf("unexpected body %s", gotBody)
	}
}

func TestDo_EmptyTokenOmitsHeader(t *testing.T) {
	var present bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["Authorization"]
	}))
	defer server.Close()

	client, _ := New(WithBaseURL(server.URL), WithTokenSource(auth.StaticToken("")))
	if _, err := client.Get(context.Background(), "/"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if present {
		t.Fatalf("authorization header should be omitted for empty tokens")
	}
}

func TestDo_NonSuccessIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"nope"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client, _ := New(WithBaseURL(server.URL))
	resp, err := client.Get(context.Background(), "/api/x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.OK() {
		t.Fatalf("400 should not be OK")
	}
}

func TestDo_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, _ := New(WithBaseURL(server.URL), WithTimeout(20*time.Millisecond))
	if _, err := client.Get(context.Background(), "/slow"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
