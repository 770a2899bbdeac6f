package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

func unsetAfter(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if _, ok := os.LookupEnv(k); ok {
			t.Fatalf("%s already set in the test environment", k)
		}
		key := k
		t.Cleanup(func() { _ = os.Unsetenv(key) })
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("MOMENT_STORE", "")
	t.Setenv("SPEECH_PROVIDER", "")
	t.Setenv("TASK_REMINDER_LEAD", "")
	t.Setenv("CLEANUP_SCHEDULE", "")
	t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DB.Driver != "sqlite" {
		t.Fatalf("DB.Driver: want=sqlite got=%q", cfg.DB.Driver)
	}
	if cfg.MomentStore != MomentStoreGorm || cfg.SpeechProvider != SpeechProviderOpenAI {
		t.Fatalf("stores: want gorm/openai got=%q/%q", cfg.MomentStore, cfg.SpeechProvider)
	}
	if cfg.TaskReminderLead != time.Hour {
		t.Fatalf("TaskReminderLead: want=1h got=%s", cfg.TaskReminderLead)
	}
	if cfg.CleanupSchedule != "@hourly" {
		t.Fatalf("CleanupSchedule: want=@hourly got=%q", cfg.CleanupSchedule)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("CORSOrigins: got=%v", cfg.CORSOrigins)
	}
}

func TestLoadConfigFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "carepulse.yaml")
	body := "task_reminder_lead: 15m\nworker_concurrency: 4\nnotify_channel: SMS\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	unsetAfter(t, "TASK_REMINDER_LEAD", "NOTIFY_CHANNEL")
	// Environment wins over the file.
	t.Setenv("WORKER_CONCURRENCY", "7")
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.TaskReminderLead != 15*time.Minute {
		t.Fatalf("TaskReminderLead: want=15m got=%s", cfg.TaskReminderLead)
	}
	if cfg.WorkerConcurrency != 7 {
		t.Fatalf("WorkerConcurrency: want=7 got=%d", cfg.WorkerConcurrency)
	}
	if cfg.NotifyChannel != "sms" {
		t.Fatalf("NotifyChannel: want=sms got=%q", cfg.NotifyChannel)
	}
}

func TestApplyConfigFileRejectsNested(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("postgres:\n  host: db\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := applyConfigFile(path); err == nil {
		t.Fatalf("applyConfigFile: want error for nested map")
	}
	if _, err := applyConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("applyConfigFile: want error for missing file")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"bad driver", map[string]string{"DB_DRIVER": "mysql"}},
		{"mongo without uri", map[string]string{"MOMENT_STORE": "mongo", "MONGO_URI": ""}},
		{"bad store", map[string]string{"MOMENT_STORE": "redis"}},
		{"bad speech", map[string]string{"SPEECH_PROVIDER": "azure"}},
		{"zero workers", map[string]string{"WORKER_CONCURRENCY": "0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(logger.Nop()); err == nil {
				t.Fatalf("LoadConfig: want error for %v", tc.env)
			}
		})
	}
}
