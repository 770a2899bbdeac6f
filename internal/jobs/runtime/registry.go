package runtime

import (
	"fmt"
	"sort"
	"sync"
)

type Handler interface {
	Type() string
	Run(ctx *Context) error
}

// Registry maps job types to handlers for one queue. A job type lives on
// exactly one queue's registry.
type Registry struct {
	queue    string
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry(queue string) *Registry {
	return &Registry{queue: queue, handlers: make(map[string]Handler)}
}

func (r *Registry) Queue() string { return r.queue }

func (r *Registry) Register(h Handler) error {
	if h == nil {
		return fmt.Errorf("queue %s: nil handler", r.queue)
	}
	jobType := h.Type()
	if jobType == "" {
		return fmt.Errorf("queue %s: handler has no job type", r.queue)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.handlers[jobType]; dup {
		return fmt.Errorf("queue %s: job_type=%s registered twice", r.queue, jobType)
	}
	r.handlers[jobType] = h
	return nil
}

// RegisterAll stops at the first failure.
func (r *Registry) RegisterAll(hs ...Handler) error {
	for _, h := range hs {
		if err := r.Register(h); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Get(jobType string) (Handler, bool) {
	r.mu.RLock()
	h, ok := r.handlers[jobType]
	r.mu.RUnlock()
	return h, ok
}

// Types lists the registered job types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.handlers))
	for jobType := range r.handlers {
		out = append(out, jobType)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}
