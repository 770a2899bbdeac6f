package sendgrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

func TestSendPostsMailSend(t *testing.T) {
	var got mailSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mail/send" {
			t.Errorf("path: got=%s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer SG.key" {
			t.Errorf("authorization header missing")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("X-Message-Id", "msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{APIKey: "SG.key", BaseURL: srv.URL, DefaultFromEmail: "ops@facility.test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := c.Send(context.Background(), SendEmailRequest{
		To:      []EmailAddress{{Email: "nurse@facility.test"}},
		Subject: "Task overdue",
		Text:    "Wound care round is overdue",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.StatusCode != http.StatusAccepted || res.MessageID != "msg-1" {
		t.Fatalf("result: got=%+v", res)
	}
	if got.From.Email != "ops@facility.test" || len(got.Personalizations) != 1 || got.Personalizations[0].To[0].Email != "nurse@facility.test" {
		t.Fatalf("wire: got=%+v", got)
	}
	if len(got.Content) != 1 || got.Content[0].Type != "text/plain" {
		t.Fatalf("content: got=%+v", got.Content)
	}
}

func TestSendValidates(t *testing.T) {
	c, _ := New(logger.Nop(), Config{APIKey: "k", DefaultFromEmail: "ops@facility.test"})
	if _, err := c.Send(context.Background(), SendEmailRequest{Subject: "s", Text: "t"}); err == nil {
		t.Fatalf("Send without To: want error")
	}
	if _, err := c.Send(context.Background(), SendEmailRequest{To: []EmailAddress{{Email: "a@b"}}, Subject: "s"}); err == nil {
		t.Fatalf("Send without content: want error")
	}
}
