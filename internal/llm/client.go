// Package llm picks battle actions by asking an OpenAI-compatible
// chat completions endpoint. It implements bridge.Decider, so the
// session code never knows whether a model or the scripted ranker is
// answering.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/colinh09/ps-ai-battler/internal/bridge"
	"github.com/colinh09/ps-ai-battler/internal/constants"
	"github.com/colinh09/ps-ai-battler/internal/logging"
)

const systemPrompt = "You are an expert competitive Pokemon player piloting a team " +
	"on Pokemon Showdown. Pick the strongest action from the offered options, " +
	"considering type matchups, HP, status and what the opponent has revealed. " +
	"Answer with a single final line in the exact format the user requests."

// Client calls a chat completions API and parses the chosen command
// out of the reply.
type Client struct {
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
}

// New builds a Client. Empty baseURL and model fall back to the
// OpenAI defaults, so any OpenAI-compatible endpoint can be swapped
// in through configuration.
func New(baseURL, model, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = constants.OpenAIBaseURL
	}
	if model == "" {
		model = constants.OpenAIChatModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Decide sends the rendered battle prompt and extracts the command
// from the model's "CHOSEN MOVE:" line.
func (c *Client) Decide(ctx context.Context, dreq bridge.DecisionRequest) (bridge.DecisionResponse, error) {
	payload := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": dreq.Prompt},
		},
		"max_completion_tokens": 500,
	}

	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+constants.OpenAIChatCompletionsPath, bytes.NewBuffer(b))
	if err != nil {
		return bridge.DecisionResponse{}, err
	}
	req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+c.apiKey)
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	resp, err := c.http.Do(req)
	if err != nil {
		return bridge.DecisionResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return bridge.DecisionResponse{}, fmt.Errorf("chat completion failed: %d %s", resp.StatusCode, string(body))
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return bridge.DecisionResponse{}, fmt.Errorf("failed to decode chat completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return bridge.DecisionResponse{}, fmt.Errorf("empty chat completion response")
	}

	content := strings.TrimSpace(out.Choices[0].Message.Content)
	cmd := bridge.ParseChosenCommand(content)
	if cmd == "" {
		return bridge.DecisionResponse{}, fmt.Errorf("no command in model reply: %.120q", content)
	}

	logging.Info("llm decision", logging.Fields{
		constants.LogFieldBattleID: dreq.BattleID,
		constants.LogFieldTurn:     dreq.Turn,
		constants.LogFieldCommand:  cmd,
		"model":                    c.model,
	})
	return bridge.DecisionResponse{Command: cmd, Reasoning: content}, nil
}
