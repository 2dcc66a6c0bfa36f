package action

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mixcore/core/internal/session"
	"github.com/mixcore/core/internal/source"
)

// Snapshot is a named, session-owned capture of every source's Core
// state, persisted across save/load independently of the undo history.
type Snapshot struct {
	ID    string
	Label string
	State map[int64]source.Core
}

// yamlSnapshot is Snapshot's on-disk shape for SaveAs.
type yamlSnapshot struct {
	Label   string                 `yaml:"label"`
	Sources map[int64]source.Core `yaml:"sources"`
}

// SnapshotStore owns the named snapshots for one Session.
type SnapshotStore struct {
	mu        sync.Mutex
	sess      *session.Session
	snapshots map[string]*Snapshot
	order     []string
}

// NewSnapshotStore returns an empty store bound to sess.
func NewSnapshotStore(sess *session.Session) *SnapshotStore {
	return &SnapshotStore{sess: sess, snapshots: make(map[string]*Snapshot)}
}

// Snapshot captures the current session state under label, returning
// the new snapshot's id.
func (s *SnapshotStore) Snapshot(label string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.snapshots[id] = &Snapshot{ID: id, Label: s.uniqueLabelLocked(label), State: capture(s.sess)}
	s.order = append(s.order, id)
	return id
}

func (s *SnapshotStore) uniqueLabelLocked(base string) string {
	label := base
	counter := 1
	for s.labelInUseLocked(label, "") {
		label = fmt.Sprintf("%s (%d)", base, counter)
		counter++
	}
	return label
}

func (s *SnapshotStore) labelInUseLocked(label, excludeID string) bool {
	for id, snap := range s.snapshots {
		if id != excludeID && snap.Label == label {
			return true
		}
	}
	return false
}

// Remove deletes the snapshot with the given id.
func (s *SnapshotStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[id]; !ok {
		return false
	}
	delete(s.snapshots, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Restore overwrites the live session with the snapshot's state.
// Source ids the snapshot references that no longer exist in the
// session are reported in failures but do not abort the restore.
func (s *SnapshotStore) Restore(id string) (failures []int64, err error) {
	s.mu.Lock()
	snap, ok := s.snapshots[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("action: no such snapshot %q", id)
	}
	return restore(s.sess, snap.State), nil
}

// Replace overwrites the snapshot's captured state with the current
// session state, keeping its label.
func (s *SnapshotStore) Replace(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[id]
	if !ok {
		return fmt.Errorf("action: no such snapshot %q", id)
	}
	snap.State = capture(s.sess)
	return nil
}

// SetLabel renames a snapshot, enforcing label uniqueness.
func (s *SnapshotStore) SetLabel(id, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[id]
	if !ok {
		return fmt.Errorf("action: no such snapshot %q", id)
	}
	if s.labelInUseLocked(label, id) {
		return fmt.Errorf("action: label %q already in use", label)
	}
	snap.Label = label
	return nil
}

// SaveAs exports the snapshot to filename as a standalone YAML document.
func (s *SnapshotStore) SaveAs(filename, id string) error {
	s.mu.Lock()
	snap, ok := s.snapshots[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("action: no such snapshot %q", id)
	}
	data, err := yaml.Marshal(yamlSnapshot{Label: snap.Label, Sources: snap.State})
	if err != nil {
		return fmt.Errorf("action: marshal snapshot: %w", err)
	}
	return os.WriteFile(filename, data, 0o644)
}

// List returns every snapshot's id and label, in creation order.
func (s *SnapshotStore) List() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Snapshot, 0, len(s.order))
	for _, id := range s.order {
		if snap, ok := s.snapshots[id]; ok {
			out = append(out, *snap)
		}
	}
	return out
}
