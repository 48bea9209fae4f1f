// Package advisory asks an OpenAI-compatible chat endpoint for a short,
// human-readable remediation suggestion. It implements core.Advisor.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/dataquality/internal/core"
)

// Config controls the provider.
type Config struct {
	Provider   string
	APIKey     string
	Model      string
	Endpoint   string
	RetryMax   int
	Timeout    time.Duration
	HTTPClient *http.Client
}

const (
	defaultProvider = "openai"
	defaultModel    = "gpt-4.1-mini"
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultRetryMax = 2
	defaultTimeout  = 20 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// New builds an Advisor for cfg.Provider.
func New(cfg Config) (core.Advisor, error) {
	cfg.Provider = strings.TrimSpace(strings.ToLower(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = defaultProvider
	}

	switch cfg.Provider {
	case "openai":
		return newOpenAIAdvisor(cfg)
	default:
		return nil, fmt.Errorf("unsupported advisory provider: %s", cfg.Provider)
	}
}

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type openAIAdvisor struct {
	apiKey   string
	model    string
	endpoint string
	client   httpClient
}

func newOpenAIAdvisor(cfg Config) (*openAIAdvisor, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("advisory suggestions require an API key (set ADVISORY_API_KEY)")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	var client httpClient = cfg.HTTPClient
	if cfg.HTTPClient == nil {
		client = newRetryClient(cfg)
	}

	return &openAIAdvisor{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		client:   client,
	}, nil
}

// newRetryClient returns a standard *http.Client whose transport retries
// connection errors, 429s and 5xx responses with backoff.
func newRetryClient(cfg Config) *http.Client {
	rc := retryablehttp.NewClient()
	rc.Logger = slog.Default()
	rc.RetryMax = cfg.RetryMax
	if rc.RetryMax <= 0 {
		rc.RetryMax = defaultRetryMax
	}
	rc.RetryWaitMin = 250 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rc.HTTPClient.Timeout = timeout
	return rc.StandardClient()
}

// Suggest implements core.Advisor.
func (a *openAIAdvisor) Suggest(ctx context.Context, req core.SuggestionRequest) (string, error) {
	payload, err := json.Marshal(buildPrompt(req))
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(payload)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("advisory request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("advisory response: %w", err)
	}

	if resp.StatusCode >= 300 {
		if msg := gjson.GetBytes(raw, "error.message").String(); msg != "" {
			return "", fmt.Errorf("advisory: %s", msg)
		}
		return "", fmt.Errorf("advisory failed with HTTP %d", resp.StatusCode)
	}

	content := strings.TrimSpace(gjson.GetBytes(raw, "choices.0.message.content").String())
	if content == "" {
		return "", errors.New("advisory returned an empty response")
	}
	return content, nil
}

// promptInput is the user message: the issue plus just enough context.
type promptInput struct {
	Table          string   `json:"table"`
	Rows           int      `json:"rows"`
	IssueType      string   `json:"issue_type"`
	Column         string   `json:"column,omitempty"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Severity       string   `json:"severity"`
	AffectedRows   int      `json:"affected_rows"`
	Examples       []string `json:"examples,omitempty"`
	ExpectedFormat string   `json:"expected_format,omitempty"`
	ColumnType     string   `json:"column_type,omitempty"`
	Options        []string `json:"options"`
}

func buildPrompt(req core.SuggestionRequest) promptInput {
	in := promptInput{
		Table:          req.TableName,
		Rows:           req.RowCount,
		IssueType:      string(req.Issue.Type),
		Column:         req.Issue.Column,
		Title:          req.Issue.Title,
		Description:    req.Issue.Description,
		Severity:       string(req.Issue.Severity),
		AffectedRows:   req.Issue.RecordCount,
		Examples:       req.Issue.ExampleValues,
		ExpectedFormat: req.Issue.ExpectedFormat,
		Options:        make([]string, 0, len(req.Options)),
	}
	if req.Profile != nil {
		in.ColumnType = string(req.Profile.Type)
	}
	for _, o := range req.Options {
		in.Options = append(in.Options, fmt.Sprintf("%s: %s", o.ID, o.Title))
	}
	return in
}

const systemPrompt = `You are a data quality assistant.

You receive one data quality issue found in a tabular dataset, with example
bad values and the remediation options the tool can apply automatically.

Reply in plain text, at most four sentences:
- Say what most likely caused the problem.
- Recommend one of the listed options by its id, or say the data needs to be fixed at the source.
- Mention any risk of the recommended option (data loss, irreversibility).

Do not invent options that are not listed.`

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
