package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dazzyddos/OSINT-AI-Agent/internal/config"
)

// Client talks to an OpenAI-compatible chat completions endpoint
// (DeepSeek by default).
type Client struct {
	http        *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http:        &http.Client{Timeout: 120 * time.Second},
		baseURL:     cfg.LLMBaseURL,
		apiKey:      cfg.DeepSeekAPIKey,
		model:       cfg.LLMModel,
		temperature: cfg.LLMTemperature,
	}
}

// Chat sends one system+user exchange and returns the assistant's text.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("DEEPSEEK_API_KEY not set")
	}

	reqBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": c.temperature,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("chat completion error: %d - %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("malformed chat completion response: %w", err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response from model")
	}
	return result.Choices[0].Message.Content, nil
}
