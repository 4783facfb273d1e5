package signals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/signaldesk/signaldesk-server/cmd/utils"
)

// LLMClient talks to an OpenAI-compatible chat completions endpoint. The
// session identifier is passed through as the request's end-user field so
// every generation runs as a fresh conversation.
type LLMClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewLLMClient(cfg *utils.Config) *LLMClient {
	return &LLMClient{
		apiKey:  cfg.LLMAPIKey,
		baseURL: strings.TrimSuffix(cfg.LLMBaseURL, "/"),
		model:   cfg.LLMModel,
		client:  &http.Client{Timeout: time.Duration(cfg.LLMTimeoutSeconds) * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *LLMClient) Complete(ctx context.Context, sessionID, systemPrompt, userPrompt string) (string, error) {
	payload := map[string]interface{}{
		"model": c.model,
		"messages": []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		"user": sessionID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm request failed with status %d", resp.StatusCode)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("llm response contained no choices")
	}

	return completion.Choices[0].Message.Content, nil
}
