package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paulexconde/surveypulse/internal/models"
)

const systemPrompt = "You are a sentiment analysis assistant. Analyse the sentiment and respond with only a number between 0 and 1, where 0 is very negative, 0.5 is neutral, and 1 is very positive. Be precise and use decimals."

// Scorer rates free text between 0 (negative) and 1 (positive).
type Scorer interface {
	Score(ctx context.Context, text string) float64
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client talks to an OpenAI compatible chat completions endpoint.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

var _ Scorer = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Score never fails: any error is logged and scored as neutral.
func (c *Client) Score(ctx context.Context, text string) float64 {
	score, err := c.score(ctx, text)
	if err != nil {
		c.logger.Warn("sentiment scoring failed", slog.String("error", err.Error()))
		return models.NeutralSentiment
	}
	return score
}

func (c *Client) score(ctx context.Context, text string) (float64, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Analyse the sentiment of the following text and return only a number between 0 and 1: %q", text)},
		},
		MaxTokens: 10,
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return 0, fmt.Errorf("response has no choices")
	}

	return ParseScore(decoded.Choices[0].Message.Content)
}

// ParseScore reads a model reply as a number clamped to [0, 1].
func ParseScore(reply string) (float64, error) {
	score, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if err != nil || math.IsNaN(score) {
		return 0, fmt.Errorf("reply %q is not a number", reply)
	}
	return math.Max(0, math.Min(1, score)), nil
}
