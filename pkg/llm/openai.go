package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type OpenAIProvider struct {
	client    *http.Client
	apiKey    string
	apiURL    string
	model     string
	maxTokens int
}

const defaultOpenAIMaxTokens = 800

func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.openai.com/v1"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultOpenAIMaxTokens
	}
	return &OpenAIProvider{
		client:    &http.Client{Timeout: 60 * time.Second},
		apiKey:    cfg.APIKey,
		apiURL:    apiURL,
		model:     cfg.Model,
		maxTokens: maxTokens,
	}
}

func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if p.model == "" {
		return nil, errors.New("openai model is required")
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}
	reqBody := openAIRequest{
		Model:       p.model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Messages:    openAIMessagesFrom(req.System, req.Messages),
	}
	if len(req.Tools) > 0 {
		reqBody.Tools = make([]openAITool, 0, len(req.Tools))
		for _, tool := range req.Tools {
			reqBody.Tools = append(reqBody.Tools, openAITool{
				Type: "function",
				Function: openAIFunction{
					Name:        tool.Name,
					Description: tool.Description,
					Parameters:  tool.Parameters,
				},
			})
		}
		reqBody.ToolChoice = "auto"
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	resp, err := doWithRetry(ctx, p.client, func() (*http.Request, error) {
		httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/chat/completions", bytes.NewReader(payload))
		if reqErr != nil {
			return nil, fmt.Errorf("openai: create request: %w", reqErr)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if p.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
		}
		return httpReq, nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var apiResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, errors.New("openai: response has no choices")
	}

	return openAIResponseTo(apiResp.Choices[0]), nil
}

type openAIRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
	Messages    []openAIMessage `json:"messages"`
	Tools       []openAITool    `json:"tools,omitempty"`
	ToolChoice  string          `json:"tool_choice,omitempty"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content,omitempty"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type openAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
}

type openAIChoice struct {
	Message      openAIChoiceMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type openAIChoiceMessage struct {
	Content   string           `json:"content"`
	ToolCalls []openAIToolCall `json:"tool_calls"`
}

// openAIMessagesFrom flattens the block-structured transcript into the chat
// completions shape: tool results become individual "tool" role messages and
// assistant tool-use blocks become tool_calls entries.
func openAIMessagesFrom(system string, messages []Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages)+1)
	if system != "" {
		out = append(out, openAIMessage{Role: "system", Content: system})
	}
	for _, message := range messages {
		var texts []string
		var toolCalls []openAIToolCall
		var toolResults []ToolResultBlock
		for _, block := range message.Content {
			switch b := block.(type) {
			case TextBlock:
				texts = append(texts, b.Text)
			case ToolUseBlock:
				toolCalls = append(toolCalls, openAIToolCall{
					ID:   b.ID,
					Type: "function",
					Function: openAIFunctionCall{
						Name:      b.Name,
						Arguments: string(b.Input),
					},
				})
			case ToolResultBlock:
				toolResults = append(toolResults, b)
			}
		}
		if len(texts) > 0 || len(toolCalls) > 0 {
			out = append(out, openAIMessage{
				Role:      message.Role,
				Content:   strings.Join(texts, "\n"),
				ToolCalls: toolCalls,
			})
		}
		for _, result := range toolResults {
			out = append(out, openAIMessage{
				Role:       "tool",
				Content:    result.Content,
				ToolCallID: result.ToolUseID,
			})
		}
	}
	return out
}

func openAIResponseTo(choice openAIChoice) *Response {
	response := &Response{}
	switch choice.FinishReason {
	case "tool_calls":
		response.StopReason = StopToolUse
	case "length":
		response.StopReason = StopMaxTokens
	default:
		response.StopReason = StopEndTurn
	}
	if choice.Message.Content != "" {
		response.Content = append(response.Content, TextBlock{Text: choice.Message.Content})
	}
	for _, call := range choice.Message.ToolCalls {
		input := json.RawMessage(call.Function.Arguments)
		if len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		response.Content = append(response.Content, ToolUseBlock{
			ID:    call.ID,
			Name:  call.Function.Name,
			Input: input,
		})
	}
	if response.StopReason == StopEndTurn && len(choice.Message.ToolCalls) > 0 {
		response.StopReason = StopToolUse
	}
	return response
}
