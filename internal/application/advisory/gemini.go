package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/turtacn/SHG-Insights/internal/config"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiClient calls the generateContent endpoint of the Gemini REST API.
type GeminiClient struct {
	endpoint        string
	model           string
	apiKey          string
	maxOutputTokens int
	temperature     float64
	client          *http.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int     `json:"maxOutputTokens"`
		Temperature     float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGeminiClient builds a client from the advisory settings.  It fails with
// ErrCodeAdvisoryNotConfigured when no API key is set.
func NewGeminiClient(cfg config.AdvisoryConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New(errors.ErrCodeAdvisoryNotConfigured, "advisory API key is not configured")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = config.DefaultAdvisoryEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = config.DefaultAdvisoryModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultAdvisoryTimeout
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = config.DefaultAdvisoryMaxOutputTokens
	}
	return &GeminiClient{
		endpoint:        strings.TrimRight(endpoint, "/"),
		model:           model,
		apiKey:          cfg.APIKey,
		maxOutputTokens: maxTokens,
		temperature:     cfg.Temperature,
		client:          &http.Client{Timeout: timeout},
	}, nil
}

// Generate sends prompt as a single user turn.  Rate-limit responses come
// back as ErrCodeAdvisoryRateLimited; every other failure is
// ErrCodeExternalService.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	var body geminiRequest
	body.Contents = []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}}
	body.GenerationConfig.MaxOutputTokens = c.maxOutputTokens
	body.GenerationConfig.Temperature = c.temperature

	payload, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal advisory request")
	}

	u := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.endpoint, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "failed to create advisory request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "failed to send advisory request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "failed to read advisory response")
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		var ge geminiError
		if json.Unmarshal(raw, &ge) == nil && ge.Error.Message != "" {
			msg = ge.Error.Message
		}
		msg = fmt.Sprintf("%d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), msg)
		if isRateLimited(resp.StatusCode, msg) {
			return "", errors.New(errors.ErrCodeAdvisoryRateLimited, msg)
		}
		return "", errors.New(errors.ErrCodeExternalService, msg)
	}

	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode advisory response")
	}
	var sb strings.Builder
	for _, cand := range out.Candidates {
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	return sb.String(), nil
}

func isRateLimited(status int, msg string) bool {
	return status == http.StatusTooManyRequests ||
		strings.Contains(msg, "429") ||
		strings.Contains(strings.ToLower(msg), "resource exhausted") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
