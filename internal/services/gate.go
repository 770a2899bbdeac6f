package services

import types "github.com/yungbote/carepulse-backend/internal/domain"

// QueueState is a point-in-time view of a background queue's worker.
type QueueState interface {
	Running() bool
	Idle() bool
}

// ShouldProcessImmediately decides whether an upload is scored inline.
// Videos always go to the queue. Images run inline unless the worker is
// running and busy. The snapshot is not atomic with the enqueue that may
// follow, so concurrent uploads can all observe an idle worker.
func ShouldProcessImmediately(kind types.MediaKind, state QueueState) bool {
	if kind == types.MediaVideo {
		return false
	}
	if state == nil || !state.Running() {
		return true
	}
	return state.Idle()
}
