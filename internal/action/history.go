package action

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/mixcore/core/internal/logging"
	"github.com/mixcore/core/internal/session"
	"github.com/mixcore/core/internal/source"
)

var log = logging.L("action")

// HistoryStep is one node (Hn) of the linear undo history.
type HistoryStep struct {
	ID        string
	Label     string
	Date      time.Time
	ViewID    string
	Thumbnail *ebiten.Image
	State     map[int64]source.Core
}

// History is a monotonically-indexed, truncate-on-branch undo log:
// storing while not at the tip drops every step past the current one,
// the same "no branching" model a linear undo stack implies.
type History struct {
	mu   sync.Mutex
	sess *session.Session

	steps []*HistoryStep
	step  int // index into steps of the current position; -1 if empty
}

// NewHistory returns an empty history bound to sess.
func NewHistory(sess *session.Session) *History {
	return &History{sess: sess, step: -1}
}

// Store appends the current session state as a new step, truncating
// any redo-able future. Contested stores (a concurrent Store already
// in flight) are dropped for this tick rather than queued, matching
// the "pressing undo during a store is a legal no-op" rule.
func (h *History) Store(label, viewID string) bool {
	if !h.mu.TryLock() {
		log.Debug("history store contested, dropping for this tick")
		return false
	}
	defer h.mu.Unlock()

	step := &HistoryStep{
		ID:        uuid.NewString(),
		Label:     label,
		Date:      time.Now(),
		ViewID:    viewID,
		Thumbnail: h.sess.Thumbnail,
		State:     capture(h.sess),
	}
	h.steps = append(h.steps[:h.step+1], step)
	h.step = len(h.steps) - 1
	return true
}

// Undo steps back by one, restoring the prior state. Returns false if
// already at the oldest step.
func (h *History) Undo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.step <= 0 {
		return false
	}
	h.step--
	restore(h.sess, h.steps[h.step].State)
	return true
}

// Redo steps forward by one. Returns false if already at the newest step.
func (h *History) Redo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.step >= len(h.steps)-1 {
		return false
	}
	h.step++
	restore(h.sess, h.steps[h.step].State)
	return true
}

// StepTo jumps directly to step index n.
func (h *History) StepTo(n int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n < 0 || n >= len(h.steps) {
		return false
	}
	h.step = n
	restore(h.sess, h.steps[h.step].State)
	return true
}

// CurrentStep returns the current step index, or -1 if the history is empty.
func (h *History) CurrentStep() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.step
}

// Steps returns a read-only snapshot of every step currently in the history.
func (h *History) Steps() []*HistoryStep {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*HistoryStep, len(h.steps))
	copy(out, h.steps)
	return out
}
