package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mixcore/core/internal/peer"
)

// InstanceLock is the advisory lock file a running process holds for
// its lifetime, advertising its instance id to any concurrently
// starting sibling.
type InstanceLock struct {
	path string
	id   int
}

// AcquireInstanceLock takes the lowest-numbered free lock file in dir
// (dir/mixcore.<n>.lock), writing the current pid into it. A second
// instance started while the first is still running finds that file
// held and moves on to the next id, per "a second instance that finds
// the lock assumes a higher instance id".
func AcquireInstanceLock(dir string) (*InstanceLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("app: lock dir: %w", err)
	}
	for id := 0; id < peer.MaxHandshake; id++ {
		path := filepath.Join(dir, fmt.Sprintf("mixcore.%d.lock", id))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return nil, fmt.Errorf("app: open lock file: %w", err)
		}
		fmt.Fprintln(f, strconv.Itoa(os.Getpid()))
		f.Close()
		return &InstanceLock{path: path, id: id}, nil
	}
	return nil, fmt.Errorf("app: no free instance id in [0,%d)", peer.MaxHandshake)
}

// ID returns the instance id this lock advertises.
func (l *InstanceLock) ID() int { return l.id }

// Release deletes the lock file, freeing the instance id for reuse.
func (l *InstanceLock) Release() error {
	return os.Remove(l.path)
}
