package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/carepulse-backend/internal/pkg/httpx"
	"github.com/yungbote/carepulse-backend/internal/platform/ctxutil"
	"github.com/yungbote/carepulse-backend/internal/platform/envutil"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

// ImageInput is the normalized multimodal image input used by Client.
type ImageInput struct {
	// Can be https://... or data:image/...;base64,...
	ImageURL string
	Detail   string // "low" | "high"
}

// Client is the OpenAI API client used by the rest of the backend.
type Client interface {
	// Structured outputs (json_schema)
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)

	// Plain text (no schema)
	GenerateText(ctx context.Context, system string, user string) (string, error)

	// Multimodal: user prompt + images -> plain text
	GenerateTextWithImages(ctx context.Context, system string, user string, images []ImageInput) (string, error)

	// Speech-to-text for a local audio or video file.
	Transcribe(ctx context.Context, filePath string) (string, error)
}

type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	VisionModel     string
	TranscribeModel string
	Timeout         time.Duration
	MaxRetries      int
	// Temperature is omitted from requests when nil.
	Temperature *float64
}

func ConfigFromEnv() Config {
	cfg := Config{
		APIKey:          envutil.String("OPENAI_API_KEY", ""),
		BaseURL:         envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
		Model:           envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		VisionModel:     envutil.String("OPENAI_VISION_MODEL", "gpt-4o"),
		TranscribeModel: envutil.String("OPENAI_TRANSCRIBE_MODEL", "whisper-1"),
		Timeout:         time.Duration(envutil.Int("OPENAI_TIMEOUT_SECONDS", 120)) * time.Second,
		MaxRetries:      envutil.Int("OPENAI_MAX_RETRIES", 2),
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_TEMPERATURE")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Temperature = &f
		}
	}
	return cfg
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.Model
	}
	if cfg.TranscribeModel == "" {
		cfg.TranscribeModel = "whisper-1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:        log.With("service", "OpenAIClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	body := e.Body
	if len(body) > 2000 {
		body = body[:2000] + "..."
	}
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, body)
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// ---------- HTTP / retry helpers ----------

type requestBody struct {
	payload     []byte
	contentType string
}

func jsonBody(v any) (requestBody, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return requestBody{}, err
	}
	return requestBody{payload: buf.Bytes(), contentType: "application/json"}, nil
}

func (c *client) do(ctx context.Context, method, path string, body requestBody, out any) error {
	var raw []byte
	err := httpx.Retry(ctxutil.Default(ctx), httpx.RetryPolicy{
		MaxRetries: c.cfg.MaxRetries,
		OnRetry: func(attempt int, sleep time.Duration, err error) {
			c.log.Warn("OpenAI request retrying", "path", path, "attempt", attempt, "sleep", sleep.String(), "error", err.Error())
		},
	}, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(body.payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Content-Type", body.contentType)

		resp, b, err := httpx.Do(c.httpClient, req)
		if err != nil {
			return resp, err
		}
		if !httpx.IsSuccess(resp) {
			return resp, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(b)}
		}
		raw = b
		return resp, nil
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("openai decode error: %w", err)
	}
	return nil
}

// -------------------- Responses API (text + structured + multimodal) --------------------

type inputMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type responsesRequest struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`
	Text  *struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					out.WriteString(c.Text)
				}
			}
		}
	}
	return out.String()
}

func (c *client) respond(ctx context.Context, req responsesRequest) (string, error) {
	req.Temperature = c.cfg.Temperature
	body, err := jsonBody(req)
	if err != nil {
		return "", err
	}
	var resp responsesResponse
	if err := c.do(ctx, http.MethodPost, "/v1/responses", body, &resp); err != nil {
		return "", err
	}
	if resp.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", resp.Refusal)
	}
	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no output_text found in response")
	}
	return text, nil
}

func (c *client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	if schemaName == "" {
		return nil, errors.New("schemaName required")
	}
	if schema == nil {
		return nil, errors.New("schema required")
	}
	req := responsesRequest{
		Model: c.cfg.Model,
		Input: []inputMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	req.Text = &struct {
		Format map[string]any `json:"format,omitempty"`
	}{Format: map[string]any{
		"type":   "json_schema",
		"name":   schemaName,
		"schema": schema,
		"strict": true,
	}}

	jsonText, err := c.respond(ctx, req)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
		return nil, fmt.Errorf("failed to parse model JSON: %w", err)
	}
	return obj, nil
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	return c.respond(ctx, responsesRequest{
		Model: c.cfg.Model,
		Input: []inputMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
}

func (c *client) GenerateTextWithImages(ctx context.Context, system string, user string, images []ImageInput) (string, error) {
	content := make([]map[string]any, 0, 1+len(images))
	content = append(content, map[string]any{
		"type": "input_text",
		"text": user,
	})
	for _, img := range images {
		u := strings.TrimSpace(img.ImageURL)
		if u == "" {
			continue
		}
		item := map[string]any{
			"type":      "input_image",
			"image_url": u,
		}
		if d := strings.TrimSpace(img.Detail); d != "" {
			item["detail"] = d
		}
		content = append(content, item)
	}
	if len(content) == 1 {
		return c.GenerateText(ctx, system, user)
	}

	return c.respond(ctx, responsesRequest{
		Model: c.cfg.VisionModel,
		Input: []inputMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: content},
		},
	})
}

// -------------------- Audio transcription --------------------

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (c *client) Transcribe(ctx context.Context, filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read media: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("model", c.cfg.TranscribeModel); err != nil {
		return "", err
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", err
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var out transcriptionResponse
	body := requestBody{payload: buf.Bytes(), contentType: mw.FormDataContentType()}
	if err := c.do(ctx, http.MethodPost, "/v1/audio/transcriptions", body, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Text), nil
}
