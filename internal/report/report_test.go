package report

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dazzyddos/OSINT-AI-Agent/internal/config"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/state"
)

func newExecutor(baseURL string) *Executor {
	cfg := config.Default()
	cfg.LLMBaseURL = baseURL
	cfg.DeepSeekAPIKey = "test-key"
	return New(cfg)
}

func chatResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
}

func TestRunGeneratesReport(t *testing.T) {
	var gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		gotUser = req.Messages[1].Content

		json.NewEncoder(w).Encode(chatResponse("# OSINT Reconnaissance Report: example.com\n\nAll quiet."))
	}))
	defer srv.Close()

	inv := state.New("inv-1", "example.com")
	inv.Subdomains = []string{"a.example.com", "b.example.com"}
	inv.Technologies = []state.Technology{{URL: "https://a.example.com", Name: "nginx", Version: "1.24.0"}}

	u := newExecutor(srv.URL).Run(context.Background(), inv)

	require.Empty(t, u.Errors)
	assert.Contains(t, u.Report, "All quiet.")
	assert.Contains(t, gotUser, `"target": "example.com"`)
	assert.Contains(t, gotUser, "a.example.com")
	assert.Contains(t, gotUser, "## Risk Assessment")
}

func TestRunServiceFailureLeavesReportEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"insufficient quota"}`, http.StatusPaymentRequired)
	}))
	defer srv.Close()

	u := newExecutor(srv.URL).Run(context.Background(), state.New("inv-1", "example.com"))

	assert.Empty(t, u.Report)
	require.Len(t, u.Errors, 1)
	assert.Equal(t, state.PhaseReporting, u.Errors[0].Phase)
	assert.Contains(t, u.Errors[0].Message, "report generation failed")
}

func TestRunEmptyCompletionIsAFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []map[string]any{}})
	}))
	defer srv.Close()

	u := newExecutor(srv.URL).Run(context.Background(), state.New("inv-1", "example.com"))

	assert.Empty(t, u.Report)
	require.Len(t, u.Errors, 1)
	assert.Contains(t, u.Errors[0].Message, "no response from model")
}

func TestChatRequiresAPIKey(t *testing.T) {
	cfg := config.Default()
	cfg.DeepSeekAPIKey = ""
	_, err := NewClient(cfg).Chat(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEEPSEEK_API_KEY")
}

func TestBuildPromptSamplesSubdomains(t *testing.T) {
	inv := state.New("inv-1", "example.com")
	for i := 0; i < 50; i++ {
		inv.Subdomains = append(inv.Subdomains, fmt.Sprintf("sub%02d.example.com", i))
	}

	prompt, err := buildPrompt(inv)
	require.NoError(t, err)
	assert.Contains(t, prompt, `"subdomains_count": 50`)
	assert.Contains(t, prompt, "sub19.example.com")
	assert.NotContains(t, prompt, "sub20.example.com")
}

func TestPhase(t *testing.T) {
	assert.Equal(t, state.PhaseReporting, New(config.Default()).Phase())
}
