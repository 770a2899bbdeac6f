package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(logger.Nop(), Config{APIKey: "sk-test", BaseURL: srv.URL, Model: "m-text", VisionModel: "m-vision", MaxRetries: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func writeOutput(w http.ResponseWriter, text string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"output": []map[string]any{{
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "output_text", "text": text},
			},
		}},
	})
}

func TestGenerateTextWithImagesUsesVisionModelAndDetail(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("path: want=/v1/responses got=%s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer auth")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeOutput(w, "A nurse smiling at a patient.")
	})

	text, err := c.GenerateTextWithImages(context.Background(), "sys", "describe", []ImageInput{{ImageURL: DataURL("image/png", []byte("x")), Detail: "high"}})
	if err != nil {
		t.Fatalf("GenerateTextWithImages: %v", err)
	}
	if text != "A nurse smiling at a patient." {
		t.Fatalf("text: got=%q", text)
	}
	if got["model"] != "m-vision" {
		t.Fatalf("model: want=m-vision got=%v", got["model"])
	}
	input := got["input"].([]any)
	user := input[1].(map[string]any)["content"].([]any)
	img := user[1].(map[string]any)
	if img["detail"] != "high" || !strings.HasPrefix(img["image_url"].(string), "data:image/png;base64,") {
		t.Fatalf("image item: got=%v", img)
	}
}

func TestDoRetriesRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeOutput(w, "42")
	})
	text, err := c.GenerateText(context.Background(), "sys", "score")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "42" || calls.Load() != 2 {
		t.Fatalf("want text=42 after 2 calls got text=%q calls=%d", text, calls.Load())
	}
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"bad"}`, http.StatusBadRequest)
	})
	if _, err := c.GenerateText(context.Background(), "sys", "x"); err == nil {
		t.Fatalf("GenerateText: want error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls: want=1 got=%d", calls.Load())
	}
}

func TestGenerateJSONParsesStructuredOutput(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		format := req["text"].(map[string]any)["format"].(map[string]any)
		if format["type"] != "json_schema" || format["strict"] != true {
			t.Errorf("format: got=%v", format)
		}
		writeOutput(w, `{"intent":"help"}`)
	})
	obj, err := c.GenerateJSON(context.Background(), "sys", "what can you do", "intent", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if obj["intent"] != "help" {
		t.Fatalf("intent: got=%v", obj["intent"])
	}
}

func TestTranscribeSendsMultipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, []byte("fake-video"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("path: got=%s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		if r.FormValue("model") != "whisper-1" {
			t.Errorf("model: got=%q", r.FormValue("model"))
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
		} else {
			b, _ := io.ReadAll(f)
			if hdr.Filename != "clip.mp4" || string(b) != "fake-video" {
				t.Errorf("file: got name=%s body=%q", hdr.Filename, b)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "  the hallway is clean  "})
	})
	text, err := c.Transcribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "the hallway is clean" {
		t.Fatalf("text: got=%q", text)
	}
}
