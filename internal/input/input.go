// Package input implements the InputMapper: a binding table from
// discrete input events (keyboard, numpad, joystick, multitouch,
// timer) to source callbacks, polled once per render tick.
//
// Grounded on IntuitionAmiga-IntuitionEngine's video_backend_ebiten.go
// keyboard-polling idiom (ebiten.IsKeyPressed driving a dispatch table
// by edge-detecting against the previous tick's state) and on
// internal/tempo for the beat/phase deferral a binding's synchronicity
// requests.
package input

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/mixcore/core/internal/logging"
	"github.com/mixcore/core/internal/session"
	"github.com/mixcore/core/internal/source"
	"github.com/mixcore/core/internal/tempo"
)

var log = logging.L("input")

// Class partitions the InputId space.
type Class uint8

const (
	ClassKeyboard Class = iota
	ClassNumpad
	ClassJoystickButton
	ClassJoystickAxis
	ClassMultitouch
	ClassTimer
)

// Per-class id-space sizes. A joystick axis direction doubles as two
// discrete ids (positive/negative excursion), matching how the other
// discrete classes are each a flat integer range.
const (
	keyboardCount       = 256
	numpadCount         = 16
	joystickButtonCount = 32
	joystickAxisCount   = 16
	multitouchCount     = 10
	timerCount          = 32
)

var classBase = map[Class]int{
	ClassKeyboard:       0,
	ClassNumpad:         keyboardCount,
	ClassJoystickButton: keyboardCount + numpadCount,
	ClassJoystickAxis:   keyboardCount + numpadCount + joystickButtonCount,
	ClassMultitouch:     keyboardCount + numpadCount + joystickButtonCount + joystickAxisCount,
	ClassTimer:          keyboardCount + numpadCount + joystickButtonCount + joystickAxisCount + multitouchCount,
}

// InputMax is the exclusive upper bound of the InputId space.
const InputMax = keyboardCount + numpadCount + joystickButtonCount + joystickAxisCount + multitouchCount + timerCount

// InputId identifies one discrete input within [0, InputMax).
type InputId int

// ID builds an InputId from a class and an offset within that class.
func ID(class Class, offset int) InputId {
	return InputId(classBase[class] + offset)
}

// Class reports which partition an InputId falls in.
func (id InputId) Class() Class {
	classes := []Class{ClassTimer, ClassMultitouch, ClassJoystickAxis, ClassJoystickButton, ClassNumpad, ClassKeyboard}
	for _, c := range classes {
		if int(id) >= classBase[c] {
			return c
		}
	}
	return ClassKeyboard
}

// Synchronicity is a binding's alignment choice.
type Synchronicity uint8

const (
	SyncNone Synchronicity = iota
	SyncBeat
	SyncPhase
)

// Target resolves a binding to the set of sources it should apply to.
type Target struct {
	SourceID int64  // used when Batch == ""
	Batch    string // when non-empty, resolves to the named Batch's members
}

// binding is one (target, callback, synchronicity) entry in an input's
// list.
type binding struct {
	target Target
	cb     source.Callback
	sync   Synchronicity
}

// Mapper is the InputMapper: a per-InputId list of bindings, polled
// once per tick against the live input devices and the session's
// source list.
type Mapper struct {
	sess  *session.Session
	clock *tempo.Clock

	bindings map[InputId][]*binding
	pressed  map[InputId]bool // last-tick pressed state, for edge detection
}

// New returns an empty Mapper bound to sess, deferring Beat/Phase
// synchronicity bindings through clock.
func New(sess *session.Session, clock *tempo.Clock) *Mapper {
	return &Mapper{
		sess:     sess,
		clock:    clock,
		bindings: make(map[InputId][]*binding),
		pressed:  make(map[InputId]bool),
	}
}

// Bind adds a binding of target/cb to id, deferred per sync.
func (m *Mapper) Bind(id InputId, target Target, cb source.Callback, sync Synchronicity) {
	m.bindings[id] = append(m.bindings[id], &binding{target: target, cb: cb, sync: sync})
}

// Unbind removes every binding registered on id.
func (m *Mapper) Unbind(id InputId) {
	delete(m.bindings, id)
}

// Copy duplicates every binding on src onto dst, appending to dst's
// existing bindings.
func (m *Mapper) Copy(src, dst InputId) {
	for _, b := range m.bindings[src] {
		copied := *b
		m.bindings[dst] = append(m.bindings[dst], &copied)
	}
}

// Bindings returns the number of bindings currently registered on id.
func (m *Mapper) Bindings(id InputId) int {
	return len(m.bindings[id])
}

// resolveTargets expands a Target into the live sources it names.
func (m *Mapper) resolveTargets(t Target) []*source.Source {
	if t.Batch != "" {
		b := m.sess.Batch(t.Batch)
		ids := b.IDs()
		out := make([]*source.Source, 0, len(ids))
		for _, id := range ids {
			if src := m.sess.Find(id); src != nil {
				out = append(out, src)
			}
		}
		return out
	}
	if src := m.sess.Find(t.SourceID); src != nil {
		return []*source.Source{src}
	}
	return nil
}

// fire runs id's bindings for one edge transition: down==true is the
// press edge (always Apply); down==false is the release edge, where
// only bidirectional callbacks Revert — a non-bidirectional callback
// applies once, on press, and is otherwise silent on key-up.
func (m *Mapper) fire(id InputId, down bool) {
	for _, b := range m.bindings[id] {
		b := b
		invoke := func() {
			for _, src := range m.resolveTargets(b.target) {
				switch {
				case down:
					b.cb.Apply(src, 0)
				case b.cb.Bidirectional():
					b.cb.Revert(src, 0)
				}
			}
		}
		switch b.sync {
		case SyncBeat:
			m.clock.ExecuteAtBeat(invoke)
		case SyncPhase:
			m.clock.ExecuteAtPhase(invoke)
		default:
			invoke()
		}
	}
}

// Tick polls keyboard state and fires bindings for every key whose
// pressed state changed since the last tick, then ticks the clock.
// Numpad and joystick inputs are not polled.
func (m *Mapper) Tick() {
	for offset := 0; offset < keyboardCount; offset++ {
		key := ebiten.Key(offset)
		id := ID(ClassKeyboard, offset)
		down := ebiten.IsKeyPressed(key)
		if down != m.pressed[id] {
			m.pressed[id] = down
			m.fire(id, down)
		}
	}
	m.clock.Tick()
}

// FireTimer fires the binding list for the given timer slot. Nothing in
// this module calls it when the clock enters a new tempo slice.
func (m *Mapper) FireTimer(slot int) error {
	if slot < 0 || slot >= timerCount {
		err := fmt.Errorf("input: timer slot %d out of range", slot)
		log.Warn("fire timer", "slot", slot, "err", err)
		return err
	}
	m.fire(ID(ClassTimer, slot), true)
	return nil
}

// FireMultitouch fires the binding list for touch point n.
func (m *Mapper) FireMultitouch(n int) error {
	if n < 0 || n >= multitouchCount {
		err := fmt.Errorf("input: multitouch point %d out of range", n)
		log.Warn("fire multitouch", "point", n, "err", err)
		return err
	}
	m.fire(ID(ClassMultitouch, n), true)
	return nil
}
