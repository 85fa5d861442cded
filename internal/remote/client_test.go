package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewHTTPClient(HTTPClientConfig{
		BaseURL:  srv.URL,
		AuthMode: AuthBasic,
		Username: "user@example.com",
		APIToken: "token",
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestHTTPClient_GetPage_DecodesStorageBodyAndAncestor(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "user@example.com" || pass != "token" {
			t.Errorf("expected basic auth to be set, got %q/%q", user, pass)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "100",
			"type":  "page",
			"title": "Setup",
			"space": map[string]string{"key": "DOCS"},
			"version": map[string]int{"number": 3},
			"ancestors": []map[string]string{
				{"id": "1"}, {"id": "42"},
			},
			"body": map[string]any{
				"storage": map[string]string{"value": "<p>hi</p>"},
			},
		})
	})

	page, err := c.GetPage(context.Background(), "100")
	if err != nil {
		t.Fatal(err)
	}
	if page.Version != 3 || page.ParentID != "42" || page.Body != "<p>hi</p>" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestHTTPClient_GetPage_NotFoundClassified(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "no such content"})
	})

	_, err := c.GetPage(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Kind != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", apiErr.Kind)
	}
}

func TestHTTPClient_CreatePage_ConflictClassified(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "title already exists"})
	})

	_, err := c.CreatePage(context.Background(), PageInput{SpaceKey: "DOCS", Title: "Setup", Body: "<p>x</p>"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestHTTPClient_RateLimited_CarriesRetryAfter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.GetPage(context.Background(), "100")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != ErrRateLimited {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if apiErr.RetryAfter.Seconds() != 3 {
		t.Errorf("expected retry-after 3s, got %v", apiErr.RetryAfter)
	}
}

func TestHTTPClient_BearerAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer pat-123" {
			t.Errorf("expected bearer header, got %q", got)
		}
	}))
	defer srv.Close()

	c, err := NewHTTPClient(HTTPClientConfig{BaseURL: srv.URL, AuthMode: AuthBearer, APIToken: "pat-123"})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.TestConnection(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestHTTPClient_CreatePage_EmbedsStorageRepresentation(t *testing.T) {
	var captured map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "1", "version": map[string]int{"number": 1}})
	})
	_, err := c.CreatePage(context.Background(), PageInput{SpaceKey: "DOCS", Title: "Setup", Body: "<p>hi</p>", ParentID: "9"})
	if err != nil {
		t.Fatal(err)
	}
	body, ok := captured["body"].(map[string]any)
	if !ok {
		t.Fatalf("expected body field, got %+v", captured)
	}
	storage, ok := body["storage"].(map[string]any)
	if !ok || storage["representation"] != "storage" || storage["value"] != "<p>hi</p>" {
		t.Errorf("unexpected storage body: %+v", storage)
	}
}

