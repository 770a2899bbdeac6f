package localmedia

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/carepulse-backend/internal/platform/ctxutil"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

// Tools is the glue around the ffmpeg/ffprobe binaries. Callers must check
// Available before extracting frames; audio extraction needs ffmpeg too.
type Tools interface {
	Available(ctx context.Context) bool

	ProbeDuration(ctx context.Context, videoPath string) (time.Duration, error)
	ExtractFrameAt(ctx context.Context, videoPath string, at time.Duration, outPath string) (string, error)
	ExtractAudioFromVideo(ctx context.Context, videoPath string, outPath string, opts AudioExtractOptions) (string, error)

	// NewWorkDir creates a private scratch directory under the work root.
	NewWorkDir(ctx context.Context, prefix string) (string, error)
	WorkRoot() string
}

type AudioExtractOptions struct {
	SampleRateHz int
	Channels     int
	Format       string // "wav" or "flac"
}

type Config struct {
	FFmpegPath  string
	FFprobePath string
	WorkRoot    string
	Timeout     time.Duration
}

type tools struct {
	log *logger.Logger
	cfg Config
}

func New(log *logger.Logger, cfg Config) Tools {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if cfg.WorkRoot == "" {
		cfg.WorkRoot = filepath.Join(os.TempDir(), "carepulse-media")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &tools{
		log: log.With("service", "MediaTools"),
		cfg: cfg,
	}
}

func (m *tools) WorkRoot() string { return m.cfg.WorkRoot }

func (m *tools) Available(ctx context.Context) bool {
	for _, bin := range []string{m.cfg.FFmpegPath, m.cfg.FFprobePath} {
		if err := m.assertBinary(bin); err != nil {
			m.log.Debug("Media tool unavailable", "binary", bin, "error", err)
			return false
		}
	}
	return true
}

func (m *tools) assertBinary(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("missing required binary %q in PATH: %w", name, err)
	}
	return nil
}

func (m *tools) NewWorkDir(ctx context.Context, prefix string) (string, error) {
	if err := os.MkdirAll(m.cfg.WorkRoot, 0o755); err != nil {
		return "", fmt.Errorf("mkdir workRoot: %w", err)
	}
	if prefix == "" {
		prefix = "run"
	}
	dir := filepath.Join(m.cfg.WorkRoot, prefix+"-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir work dir: %w", err)
	}
	return dir, nil
}

func (m *tools) ProbeDuration(ctx context.Context, videoPath string) (time.Duration, error) {
	ctx = ctxutil.Default(ctx)
	if videoPath == "" {
		return 0, fmt.Errorf("videoPath required")
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.cfg.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w; out=%s", err, string(out))
	}
	return parseProbeDuration(string(out))
}

func parseProbeDuration(out string) (time.Duration, error) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "N/A" {
			continue
		}
		secs, err := strconv.ParseFloat(line, 64)
		if err != nil || secs < 0 {
			continue
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	return 0, fmt.Errorf("ffprobe output missing duration: %q", strings.TrimSpace(out))
}

func (m *tools) ExtractFrameAt(ctx context.Context, videoPath string, at time.Duration, outPath string) (string, error) {
	ctx = ctxutil.Default(ctx)
	if videoPath == "" {
		return "", fmt.Errorf("videoPath required")
	}
	if outPath == "" {
		return "", fmt.Errorf("outPath required")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("mkdir outPath dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.cfg.FFmpegPath,
		"-y",
		"-ss", strconv.FormatFloat(at.Seconds(), 'f', 3, 64),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "3",
		outPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg frame failed: %w; out=%s", err, string(out))
	}
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("frame output missing at %s", outPath)
	}
	return outPath, nil
}

func (m *tools) ExtractAudioFromVideo(ctx context.Context, videoPath string, outPath string, opts AudioExtractOptions) (string, error) {
	ctx = ctxutil.Default(ctx)
	if err := m.assertBinary(m.cfg.FFmpegPath); err != nil {
		return "", err
	}
	if videoPath == "" {
		return "", fmt.Errorf("videoPath required")
	}
	if outPath == "" {
		return "", fmt.Errorf("outPath required")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("mkdir outPath dir: %w", err)
	}

	sr := opts.SampleRateHz
	if sr <= 0 {
		sr = 16000
	}
	ch := opts.Channels
	if ch <= 0 {
		ch = 1
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "wav"
	}
	if format != "wav" && format != "flac" {
		return "", fmt.Errorf("unsupported audio format: %s", format)
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.cfg.FFmpegPath,
		"-y",
		"-i", videoPath,
		"-vn",
		"-ac", strconv.Itoa(ch),
		"-ar", strconv.Itoa(sr),
		"-f", format,
		outPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg extract audio failed: %w; out=%s", err, string(out))
	}
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("audio output missing at %s", outPath)
	}
	return outPath, nil
}
