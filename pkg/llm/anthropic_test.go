package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAnthropicProviderComplete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Fatalf("expected api key header")
		}
		if r.URL.Path != "/v1/messages" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.System != "system note" {
			t.Fatalf("unexpected system %q", req.System)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Fatalf("unexpected messages")
		}
		fmt.Fprint(w, `{"stop_reason":"tool_use","content":[`+
			`{"type":"text","text":"Hello world"},`+
			`{"type":"tool_use","id":"toolu_1","name":"search","input":{"query":"abc"}}]}`)
	}))
	defer server.Close()

	provider := NewAnthropicProvider(Config{
		APIURL: server.URL,
		APIKey: "test-key",
		Model:  "claude-test",
	})

	resp, err := provider.Complete(context.Background(), Request{
		System:   "system note",
		Messages: []Message{UserText("hi")},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if resp.StopReason != StopToolUse {
		t.Fatalf("unexpected stop reason %q", resp.StopReason)
	}
	if resp.FirstText() != "Hello world" {
		t.Fatalf("unexpected text %q", resp.FirstText())
	}
	uses := resp.ToolUses()
	if len(uses) != 1 {
		t.Fatalf("expected tool use, got %d", len(uses))
	}
	if uses[0].ID != "toolu_1" || uses[0].Name != "search" {
		t.Fatalf("unexpected tool use %+v", uses[0])
	}
	if !strings.Contains(string(uses[0].Input), `"query"`) {
		t.Fatalf("unexpected tool input %q", string(uses[0].Input))
	}
}

func TestAnthropicProviderClientTimeout(t *testing.T) {
	p := NewAnthropicProvider(Config{Model: "test"})
	if p.client.Timeout != 60*time.Second {
		t.Fatalf("expected 60s timeout, got %v", p.client.Timeout)
	}
}

func TestAnthropicProviderDefaultMaxTokens(t *testing.T) {
	p := NewAnthropicProvider(Config{Model: "test", MaxTokens: 0})
	if p.maxTokens != defaultAnthropicMaxTokens {
		t.Fatalf("expected default max tokens %d, got %d", defaultAnthropicMaxTokens, p.maxTokens)
	}
	p2 := NewAnthropicProvider(Config{Model: "test", MaxTokens: 1})
	if p2.maxTokens != 1 {
		t.Fatalf("expected max tokens 1, got %d", p2.maxTokens)
	}
}

func TestAnthropicProviderNoToolsInRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(req.Tools) != 0 {
			t.Fatalf("expected no tools in request, got %d", len(req.Tools))
		}
		if req.ToolChoice != nil {
			t.Fatalf("expected no tool_choice without tools")
		}
		fmt.Fprint(w, `{"stop_reason":"end_turn","content":[{"type":"text","text":"ok"}]}`)
	}))
	defer server.Close()

	p := NewAnthropicProvider(Config{APIURL: server.URL, APIKey: "k", Model: "m"})
	resp, err := p.Complete(context.Background(), Request{Messages: []Message{UserText("hi")}})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.FirstText() != "ok" {
		t.Fatalf("unexpected text %q", resp.FirstText())
	}
}

func TestAnthropicProviderStatus300(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMultipleChoices)
		w.Write([]byte("redirect"))
	}))
	defer server.Close()

	p := NewAnthropicProvider(Config{APIURL: server.URL, APIKey: "k", Model: "m"})
	_, err := p.Complete(context.Background(), Request{Messages: []Message{UserText("hi")}})
	if err == nil {
		t.Fatal("expected error for status 300")
	}
}

func TestAnthropicProviderToolResultMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		foundToolResult := false
		for _, msg := range req.Messages {
			for _, c := range msg.Content {
				if c.Type == "tool_result" {
					foundToolResult = true
					if msg.Role != "user" {
						t.Fatalf("expected tool_result role 'user', got %q", msg.Role)
					}
					if c.ToolUseID != "toolu_1" {
						t.Fatalf("expected tool_use_id toolu_1, got %s", c.ToolUseID)
					}
				}
			}
		}
		if !foundToolResult {
			t.Fatal("expected tool_result content block in request")
		}
		fmt.Fprint(w, `{"stop_reason":"end_turn","content":[{"type":"text","text":"ok"}]}`)
	}))
	defer server.Close()

	p := NewAnthropicProvider(Config{APIURL: server.URL, APIKey: "k", Model: "m"})
	_, err := p.Complete(context.Background(), Request{Messages: []Message{
		UserText("hi"),
		{Role: "assistant", Content: []ContentBlock{ToolUseBlock{ID: "toolu_1", Name: "search", Input: json.RawMessage(`{}`)}}},
		{Role: "user", Content: []ContentBlock{ToolResultBlock{ToolUseID: "toolu_1", Content: "search result"}}},
	}})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
}

func TestAnthropicProviderWithToolsInRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(req.Tools) != 1 {
			t.Fatalf("expected 1 tool in request, got %d", len(req.Tools))
		}
		if req.Tools[0].Name != "search" {
			t.Fatalf("expected tool name 'search', got %q", req.Tools[0].Name)
		}
		if req.ToolChoice == nil || req.ToolChoice.Type != "auto" {
			t.Fatalf("expected auto tool_choice")
		}
		fmt.Fprint(w, `{"stop_reason":"end_turn","content":[{"type":"text","text":"ok"}]}`)
	}))
	defer server.Close()

	p := NewAnthropicProvider(Config{APIURL: server.URL, APIKey: "k", Model: "m"})
	_, err := p.Complete(context.Background(), Request{
		Messages: []Message{UserText("hi")},
		Tools: []Tool{
			{Name: "search", Description: "searches", Parameters: map[string]any{"type": "object"}},
		},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
}
