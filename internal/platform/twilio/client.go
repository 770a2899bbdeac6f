package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/carepulse-backend/internal/pkg/httpx"
	"github.com/yungbote/carepulse-backend/internal/platform/ctxutil"
	"github.com/yungbote/carepulse-backend/internal/platform/envutil"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

type Client interface {
	SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error)
	SendSMS(ctx context.Context, to string, body string) (*Message, error)
	SendWhatsApp(ctx context.Context, to string, body string) (*Message, error)
}

type Config struct {
	AccountSID          string
	AuthToken           string
	BaseURL             string
	DefaultFrom         string
	WhatsAppFrom        string
	MessagingServiceSID string
	Timeout             time.Duration
	MaxRetries          int
}

func ConfigFromEnv() Config {
	return Config{
		AccountSID:          envutil.String("TWILIO_ACCOUNT_SID", ""),
		AuthToken:           envutil.String("TWILIO_AUTH_TOKEN", ""),
		BaseURL:             envutil.String("TWILIO_BASE_URL", ""),
		DefaultFrom:         envutil.String("TWILIO_FROM_NUMBER", ""),
		WhatsAppFrom:        envutil.String("TWILIO_WHATSAPP_FROM", ""),
		MessagingServiceSID: envutil.String("TWILIO_MESSAGING_SERVICE_SID", ""),
		Timeout:             envutil.Duration("TWILIO_TIMEOUT", 30*time.Second),
		MaxRetries:          envutil.Int("TWILIO_MAX_RETRIES", 3),
	}
}

// Configured reports whether enough credentials are present to send.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.AccountSID) != "" && strings.TrimSpace(c.AuthToken) != ""
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.AccountSID = strings.TrimSpace(cfg.AccountSID)
	if cfg.AccountSID == "" {
		return nil, fmt.Errorf("missing TWILIO_ACCOUNT_SID")
	}
	if strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, fmt.Errorf("missing TWILIO_AUTH_TOKEN")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.twilio.com/2010-04-01"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &client{
		log:        log.With("client", "TwilioClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type SendMessageRequest struct {
	To                  string
	From                string
	MessagingServiceSID string
	Body                string
}

type Message struct {
	SID          string  `json:"sid,omitempty"`
	To           string  `json:"to,omitempty"`
	From         string  `json:"from,omitempty"`
	Body         string  `json:"body,omitempty"`
	Status       string  `json:"status,omitempty"`
	ErrorCode    *int    `json:"error_code,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
	DateCreated  string  `json:"date_created,omitempty"`
}

func (c *client) SendSMS(ctx context.Context, to string, body string) (*Message, error) {
	return c.SendMessage(ctx, SendMessageRequest{To: to, Body: body})
}

// SendWhatsApp prefixes both ends with the whatsapp: channel marker.
func (c *client) SendWhatsApp(ctx context.Context, to string, body string) (*Message, error) {
	from := c.cfg.WhatsAppFrom
	if from == "" {
		from = c.cfg.DefaultFrom
	}
	return c.SendMessage(ctx, SendMessageRequest{
		To:   whatsappAddr(to),
		From: whatsappAddr(from),
		Body: body,
	})
}

func whatsappAddr(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "whatsapp:") {
		return s
	}
	return "whatsapp:" + s
}

func (c *client) SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error) {
	req.To = strings.TrimSpace(req.To)
	req.From = strings.TrimSpace(req.From)
	req.Body = strings.TrimSpace(req.Body)
	req.MessagingServiceSID = strings.TrimSpace(req.MessagingServiceSID)

	if req.To == "" {
		return nil, fmt.Errorf("twilio: To required")
	}
	if req.From == "" {
		req.From = c.cfg.DefaultFrom
	}
	if req.MessagingServiceSID == "" {
		req.MessagingServiceSID = c.cfg.MessagingServiceSID
	}
	if req.From == "" && req.MessagingServiceSID == "" {
		return nil, fmt.Errorf("twilio: sender required (From or MessagingServiceSID)")
	}
	if req.Body == "" {
		return nil, fmt.Errorf("twilio: Body required")
	}

	form := url.Values{}
	form.Set("To", req.To)
	if req.From != "" {
		form.Set("From", req.From)
	}
	if req.MessagingServiceSID != "" {
		form.Set("MessagingServiceSid", req.MessagingServiceSID)
	}
	form.Set("Body", req.Body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.cfg.BaseURL, c.cfg.AccountSID)
	return c.postForm(ctx, endpoint, form)
}

type apiError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

type HTTPError struct {
	StatusCode int
	Body       string
	APIError   *apiError
}

func (e *HTTPError) Error() string {
	if e.APIError != nil && strings.TrimSpace(e.APIError.Message) != "" {
		return fmt.Sprintf("twilio http %d: %s (code=%d)", e.StatusCode, e.APIError.Message, e.APIError.Code)
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 2000 {
		msg = msg[:2000] + "..."
	}
	return fmt.Sprintf("twilio http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int { return e.StatusCode }

func (c *client) postForm(ctx context.Context, endpoint string, form url.Values) (*Message, error) {
	encoded := form.Encode()
	var out *Message
	err := httpx.Retry(ctxutil.Default(ctx), httpx.RetryPolicy{
		MaxRetries: c.cfg.MaxRetries,
		OnRetry: func(attempt int, sleep time.Duration, err error) {
			c.log.Warn("Twilio request retrying", "attempt", attempt, "sleep", sleep.String(), "error", err.Error())
		},
	}, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)

		resp, raw, err := httpx.Do(c.httpClient, req)
		if err != nil {
			return resp, err
		}
		if !httpx.IsSuccess(resp) {
			return resp, decodeError(resp.StatusCode, raw)
		}
		msg := &Message{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, msg); err != nil {
				return resp, fmt.Errorf("twilio decode error: %w", err)
			}
		}
		out = msg
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeError(status int, raw []byte) *HTTPError {
	he := &HTTPError{StatusCode: status, Body: string(raw)}
	var ae apiError
	if json.Unmarshal(raw, &ae) == nil && strings.TrimSpace(ae.Message) != "" {
		he.APIError = &ae
	}
	return he
}
