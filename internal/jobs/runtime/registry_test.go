package runtime

import (
	"strings"
	"testing"
)

type namedHandler string

func (h namedHandler) Type() string           { return string(h) }
func (h namedHandler) Run(ctx *Context) error { return nil }

func TestRegistryRegisterAll(t *testing.T) {
	reg := NewRegistry("tasks")
	if err := reg.RegisterAll(namedHandler("task_overdue"), namedHandler("task_reminder")); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if got := strings.Join(reg.Types(), ","); got != "task_overdue,task_reminder" {
		t.Fatalf("Types: want=task_overdue,task_reminder got=%s", got)
	}
	if _, ok := reg.Get("task_reminder"); !ok {
		t.Fatalf("Get(task_reminder): want registered")
	}
	if _, ok := reg.Get("media_sentiment"); ok {
		t.Fatalf("Get(media_sentiment): want missing on tasks queue")
	}
}

func TestRegistryRejectsBadHandlers(t *testing.T) {
	reg := NewRegistry("media")
	if err := reg.Register(nil); err == nil {
		t.Fatalf("Register(nil): want error")
	}
	if err := reg.Register(namedHandler("")); err == nil {
		t.Fatalf("Register(empty type): want error")
	}
	err := reg.RegisterAll(namedHandler("media_sentiment"), namedHandler("media_sentiment"))
	if err == nil || !strings.Contains(err.Error(), "queue media") {
		t.Fatalf("RegisterAll(duplicate): want queue-scoped error got=%v", err)
	}
}
