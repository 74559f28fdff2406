package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klytics/boatkit/internal/config"
	"github.com/klytics/boatkit/internal/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		APIKey:        "pplx-test",
		Model:         "test-model",
		Endpoint:      srv.URL + "/chat/completions",
		QueryTemplate: config.DefaultQueryTemplate,
	}
	return NewClient(cfg, opts...)
}

func TestDescribeSuccess(t *testing.T) {
	var got completionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer pplx-test" {
			t.Errorf("authorization = %q", auth)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"A yacht is a sailing or power vessel."}},{"message":{"content":"second"}}]}`))
	})

	res := c.Describe(context.Background(), "Yacht")
	if res.Degraded {
		t.Fatalf("unexpected degraded result: %v", res.Cause)
	}
	if res.Description != "A yacht is a sailing or power vessel." {
		t.Errorf("description = %q", res.Description)
	}
	if res.Subject != "Yacht" {
		t.Errorf("subject = %q", res.Subject)
	}

	if got.Model != "test-model" {
		t.Errorf("model = %q", got.Model)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	if !strings.Contains(got.Messages[0].Content, "boat type: Yacht.") {
		t.Errorf("prompt = %q", got.Messages[0].Content)
	}
}

func TestDescribeFailuresDegrade(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"invalid key"}}`))
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		}},
		{"no choices", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}},
		{"missing content", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[{"message":{}}]}`))
		}},
		{"error payload", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":{"message":"model not found"}}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			res := c.Describe(context.Background(), "Sailboat")
			if !res.Degraded {
				t.Fatal("expected degraded result")
			}
			if res.Description != "Error: Could not fetch information for Sailboat" {
				t.Errorf("description = %q", res.Description)
			}
			var eerr *Error
			if !errors.As(res.Cause, &eerr) || eerr.Subject != "Sailboat" {
				t.Errorf("cause = %v", res.Cause)
			}
		})
	}
}

func TestDescribeNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var buf bytes.Buffer
	c := NewClient(&config.Config{APIKey: "k", Endpoint: url}, WithLogger(logger.New(&buf, "info", "text")))

	res := c.Describe(context.Background(), "Catamaran")
	if !res.Degraded {
		t.Fatal("expected degraded result for unreachable endpoint")
	}
	if res.Description != Placeholder("Catamaran") {
		t.Errorf("description = %q", res.Description)
	}
	if !strings.Contains(buf.String(), "subject=Catamaran") {
		t.Errorf("failure should be logged with the subject, got %q", buf.String())
	}
}

func TestCompleteReturnsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	if _, err := c.Complete(context.Background(), "hi"); err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status 429 error, got %v", err)
	}
}

func TestPrompt(t *testing.T) {
	c := NewClient(&config.Config{QueryTemplate: "About {BOAT_TYPE}; not {BOAT_TYPE}"})
	if got := c.Prompt("Kayak"); got != "About Kayak; not {BOAT_TYPE}" {
		t.Errorf("Prompt = %q", got)
	}

	def := NewClient(&config.Config{})
	if !strings.HasPrefix(def.Prompt("Kayak"), "Provide detailed information about the boat type: Kayak.") {
		t.Errorf("default prompt = %q", def.Prompt("Kayak"))
	}
	if def.Model() != config.DefaultModel {
		t.Errorf("default model = %q", def.Model())
	}
}

func TestDegrade(t *testing.T) {
	cause := errors.New("timeout")
	res := Degrade("Dinghy", cause)
	if !res.Degraded || !errors.Is(res.Cause, cause) {
		t.Errorf("Degrade = %+v", res)
	}
	if ok := OK("Dinghy", "small boat"); ok.Degraded || ok.Cause != nil {
		t.Errorf("OK = %+v", ok)
	}
}
