package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
	"github.com/yungbote/carepulse-backend/internal/platform/localmedia"
)

var errFake = errors.New("fake failure")

type stubQueue struct{ running, idle bool }

func (q stubQueue) Running() bool { return q.running }
func (q stubQueue) Idle() bool    { return q.idle }

type fakeTranscriber struct {
	text  string
	err   error
	calls int32
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.text, f.err
}

type describeCall struct {
	mime   string
	detail string
	size   int
}

// fakeDescriber answers by detail level; frames carry a "frame_N" marker.
type fakeDescriber struct {
	mu     sync.Mutex
	calls  []describeCall
	reply  func(data []byte, detail string) (string, error)
	failOn map[string]bool
}

func (f *fakeDescriber) DescribeImage(ctx context.Context, data []byte, mime string, detail string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, describeCall{mime: mime, detail: detail, size: len(data)})
	f.mu.Unlock()
	if f.failOn[detail] {
		return "", errFake
	}
	if f.reply != nil {
		return f.reply(data, detail)
	}
	return "a description", nil
}

func (f *fakeDescriber) snapshot() []describeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]describeCall(nil), f.calls...)
}

type fakeClassifier struct {
	reply string
	err   error
}

func (f *fakeClassifier) Classify(ctx context.Context, instructions string, text string) (string, error) {
	return f.reply, f.err
}

// fakeTools writes the frame offset into each frame file so the describer
// can tell frames apart.
type fakeTools struct {
	available bool
	duration  time.Duration
	probeErr  error
	frameErr  map[time.Duration]bool
	root      string

	mu      sync.Mutex
	workDir string
	frames  []time.Duration
}

var _ localmedia.Tools = (*fakeTools)(nil)

func (f *fakeTools) Available(ctx context.Context) bool { return f.available }

func (f *fakeTools) ProbeDuration(ctx context.Context, videoPath string) (time.Duration, error) {
	return f.duration, f.probeErr
}

func (f *fakeTools) ExtractFrameAt(ctx context.Context, videoPath string, at time.Duration, outPath string) (string, error) {
	f.mu.Lock()
	f.frames = append(f.frames, at)
	f.mu.Unlock()
	if f.frameErr[at] {
		return "", errFake
	}
	if err := os.WriteFile(outPath, []byte(at.String()), 0o644); err != nil {
		return "", err
	}
	return outPath, nil
}

func (f *fakeTools) ExtractAudioFromVideo(ctx context.Context, videoPath string, outPath string, opts localmedia.AudioExtractOptions) (string, error) {
	return "", errFake
}

func (f *fakeTools) NewWorkDir(ctx context.Context, prefix string) (string, error) {
	dir, err := os.MkdirTemp(f.root, prefix+"-")
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.workDir = dir
	f.mu.Unlock()
	return dir, nil
}

func (f *fakeTools) WorkRoot() string { return f.root }

type fixedExtractor struct {
	text  string
	calls int32
}

func (f *fixedExtractor) Extract(ctx context.Context, path string, kind types.MediaKind) string {
	atomic.AddInt32(&f.calls, 1)
	return f.text
}

type fixedScorer struct {
	score int
	calls int32
}

func (f *fixedScorer) Score(ctx context.Context, text string) int {
	atomic.AddInt32(&f.calls, 1)
	return f.score
}

type recordingEvents struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (r *recordingEvents) MomentProcessed(ctx context.Context, m *types.Moment) {
	r.mu.Lock()
	r.ids = append(r.ids, m.ID)
	r.mu.Unlock()
}

type failingJobs struct{ queue string }

func (f failingJobs) Queue() string { return f.queue }
func (f failingJobs) Enqueue(dbc dbctx.Context, req EnqueueRequest) (*types.JobRun, error) {
	return nil, errFake
}
func (f failingJobs) Cancel(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	return nil, errFake
}
func (f failingJobs) CancelForEntity(dbc dbctx.Context, jobType, entityType string, entityID uuid.UUID) (int64, error) {
	return 0, errFake
}
func (f failingJobs) Get(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	return nil, errFake
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (f *fakeNotifier) Notify(ctx context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func pngBytes(tb testing.TB, w, h int) []byte {
	tb.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		tb.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func writeFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		tb.Fatalf("write %s: %v", name, err)
	}
	return p
}
