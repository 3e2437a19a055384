package advisor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestExtractJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain object", `{"reply":"ok"}`, `{"reply":"ok"}`},
		{"fenced", "```json\n{\"reply\":\"ok\"}\n```", `{"reply":"ok"}`},
		{"surrounding prose", "Here you go: {\"reply\":\"ok\"} hope that helps", `{"reply":"ok"}`},
		{"empty", "   ", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractJSONBlock(tc.input); got != tc.expected {
				t.Fatalf("expected %q got %q", tc.expected, got)
			}
		})
	}
}

func TestAdviseParsesReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"reply\":\"Take the credit union offer.\",\"tips\":[\"Ask about rate-match\"]}"}}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	advice, err := client.Advise(context.Background(), AdviceInput{Question: "Which offer should I take?"})
	if err != nil {
		t.Fatalf("advise: %v", err)
	}
	if advice.Reply != "Take the credit union offer." {
		t.Fatalf("unexpected reply %q", advice.Reply)
	}
	if len(advice.Tips) != 1 {
		t.Fatalf("expected one tip, got %v", advice.Tips)
	}
}

func TestAdviseRejectsEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"reply\":\"\"}"}}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Advise(context.Background(), AdviceInput{}); err == nil {
		t.Fatal("empty reply should error")
	}
}
