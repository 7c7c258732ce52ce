package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

var testReq = Request{
	System:      "You are a copywriter.",
	User:        "Write about summer.",
	Temperature: 0.7,
	MaxTokens:   2000,
}

func TestNew_MissingCredential(t *testing.T) {
	for _, key := range []string{"", "   "} {
		_, err := New(Config{Provider: "openai", APIKey: key})
		if err == nil {
			t.Fatal("expected error for missing API key")
		}
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("error = %T, want *ConfigError", err)
		}
		if !errors.Is(err, ErrMissingCredential) {
			t.Errorf("error %v does not wrap ErrMissingCredential", err)
		}
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "mystery", APIKey: "k"})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("error = %v, want ErrUnknownProvider", err)
	}
}

func TestNew_Providers(t *testing.T) {
	c, err := New(Config{Provider: "", APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*OpenAIClient); !ok {
		t.Errorf("default provider = %T, want *OpenAIClient", c)
	}

	c, err = New(Config{Provider: "Anthropic", APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*AnthropicClient); !ok {
		t.Errorf("anthropic provider = %T, want *AnthropicClient", c)
	}
}

func TestNew_OpenRouter(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer srv.Close()

	c, err := New(Config{Provider: "openrouter", APIKey: "k", BaseURL: srv.URL + "/api/v1", Model: "openai/gpt-4o-mini"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*OpenAIClient); !ok {
		t.Fatalf("openrouter provider = %T, want *OpenAIClient", c)
	}
	got, err := c.Complete(context.Background(), testReq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("reply = %q, want ok", got)
	}
	if path != "/api/v1/chat/completions" {
		t.Errorf("path = %q", path)
	}
}

func TestOpenAI_Complete(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Stream      bool    `json:"stream"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hello #summer"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	c := NewOpenAI("test-key", "test-model", srv.URL)
	text, err := c.Complete(context.Background(), testReq)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "Hello #summer" {
		t.Errorf("text = %q", text)
	}

	if got.Model != "test-model" {
		t.Errorf("model = %q", got.Model)
	}
	if got.MaxTokens != 2000 {
		t.Errorf("max_tokens = %d", got.MaxTokens)
	}
	if got.Temperature < 0.69 || got.Temperature > 0.71 {
		t.Errorf("temperature = %v", got.Temperature)
	}
	if got.Stream {
		t.Error("stream should be false")
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	if got.Messages[0].Content != testReq.System || got.Messages[1].Content != testReq.User {
		t.Errorf("messages content = %+v", got.Messages)
	}
}

func TestOpenAI_UpstreamError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error", http.StatusUnauthorized, `{"error":{"message":"invalid key","type":"invalid_request_error"}}`},
		{"plain body", http.StatusBadGateway, `bad gateway`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewOpenAI("k", "m", srv.URL).Complete(context.Background(), testReq)
			var ue *UpstreamError
			if !errors.As(err, &ue) {
				t.Fatalf("error = %v (%T), want *UpstreamError", err, err)
			}
			if ue.Status != tt.status {
				t.Errorf("status = %d, want %d", ue.Status, tt.status)
			}
			if !strings.Contains(err.Error(), fmt.Sprint(tt.status)) {
				t.Errorf("error %q does not mention status", err.Error())
			}
		})
	}
}

func TestOpenAI_NoContent(t *testing.T) {
	for _, body := range []string{
		`{"id":"c1","choices":[]}`,
		`{"id":"c1","choices":[{"index":0,"message":{"role":"assistant","content":""}}]}`,
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, body)
		}))

		_, err := NewOpenAI("k", "m", srv.URL).Complete(context.Background(), testReq)
		srv.Close()
		if !errors.Is(err, ErrNoContent) {
			t.Errorf("body %s: error = %v, want ErrNoContent", body, err)
		}
	}
}

func TestOpenAI_NoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
	}))
	defer srv.Close()

	_, err := NewOpenAI("k", "m", srv.URL).Complete(context.Background(), testReq)
	if err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestAnthropic_Complete(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		System      string  `json:"system"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float32 `json:"temperature"`
		Messages    []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[{"type":"text","text":"Xin chào "},{"type":"text","text":"#hè"}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":4}}`)
	}))
	defer srv.Close()

	c := NewAnthropic("k", "claude-test", srv.URL+"/v1")
	text, err := c.Complete(context.Background(), testReq)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "Xin chào #hè" {
		t.Errorf("text = %q", text)
	}
	if got.System != testReq.System {
		t.Errorf("system = %q", got.System)
	}
	if got.Model != "claude-test" || got.MaxTokens != 2000 {
		t.Errorf("model/max_tokens = %q/%d", got.Model, got.MaxTokens)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestAnthropic_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens too large"}}`)
	}))
	defer srv.Close()

	_, err := NewAnthropic("k", "m", srv.URL).Complete(context.Background(), testReq)
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v (%T), want *UpstreamError", err, err)
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error %q does not mention status", err.Error())
	}
}

func TestAnthropic_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`)
	}))
	defer srv.Close()

	_, err := NewAnthropic("k", "m", srv.URL).Complete(context.Background(), testReq)
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("error = %v, want ErrNoContent", err)
	}
}

func TestUpstreamError_Message(t *testing.T) {
	e := &UpstreamError{Status: 503, Message: "overloaded"}
	if got := e.Error(); got != "upstream API error (HTTP 503): overloaded" {
		t.Errorf("Error() = %q", got)
	}
	e = &UpstreamError{Message: "boom"}
	if got := e.Error(); got != "upstream API error: boom" {
		t.Errorf("Error() = %q", got)
	}
}
