// Package control dispatches incoming OSC messages onto the session,
// action history, snapshots, tempo clock, and peer manager, per the
// address-pattern surface: /output/..., /session/..., /all/<attr>,
// /selection/<attr>, /current/<attr>, /next, /previous, /#<id>/<attr>,
// /batch#<n>/<attr>, /metronome/sync, /sync, /info/{log,notify}.
//
// Grounded on internal/osc for the wire codec and on erparts-go-avebi's
// dispatch-table idiom (controller_interface.go's kind-keyed method
// selection), generalized here to an address-keyed handler table.
package control

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mixcore/core/internal/action"
	"github.com/mixcore/core/internal/logging"
	"github.com/mixcore/core/internal/osc"
	"github.com/mixcore/core/internal/peer"
	"github.com/mixcore/core/internal/session"
	"github.com/mixcore/core/internal/source"
	"github.com/mixcore/core/internal/tempo"
)

var log = logging.L("control")

// Router owns every collaborator an incoming OSC command can reach.
type Router struct {
	Session   *session.Session
	History   *action.History
	Snapshots *action.SnapshotStore
	Clock     *tempo.Clock
	Peers     *peer.Manager

	Fader Fader
}

// NewRouter wires a Router against the given collaborators. Peers may
// be nil when peer-to-peer discovery is disabled.
func NewRouter(sess *session.Session, hist *action.History, snaps *action.SnapshotStore, clock *tempo.Clock, peers *peer.Manager) *Router {
	return &Router{Session: sess, History: hist, Snapshots: snaps, Clock: clock, Peers: peers}
}

// Dispatch routes one decoded OSC message. Parse/resolution errors are
// logged and the message is dropped, never propagated as a hard
// failure, matching "on parse error a log entry is produced; the
// message is silently dropped".
func (r *Router) Dispatch(m osc.Message) {
	if err := r.dispatch(m); err != nil {
		log.Warn("dropping OSC message", "address", m.Address, "err", err)
	}
}

func (r *Router) dispatch(m osc.Message) error {
	addr := strings.TrimPrefix(m.Address, "/")
	parts := strings.Split(addr, "/")
	if len(parts) == 0 || parts[0] == "" {
		return fmt.Errorf("control: empty address")
	}

	switch {
	case parts[0] == "output" && len(parts) == 2:
		return r.handleOutput(parts[1], m.Args)
	case parts[0] == "session" && len(parts) == 2:
		return r.handleSession(parts[1], m.Args)
	case parts[0] == "all" && len(parts) == 2:
		return r.applyAttrToTargets(parts[1], m.Args, r.Session.Sources())
	case parts[0] == "selection" && len(parts) == 2:
		return r.applyAttrToTargets(parts[1], m.Args, r.resolveIDs(r.Session.Selection().IDs()))
	case parts[0] == "current" && len(parts) == 2:
		return r.applyAttrToTargets(parts[1], m.Args, r.currentSource())
	case parts[0] == "next" && len(parts) == 1:
		r.stepCurrent(1)
		return nil
	case parts[0] == "previous" && len(parts) == 1:
		r.stepCurrent(-1)
		return nil
	case parts[0] == "metronome" && len(parts) == 2 && parts[1] == "sync":
		r.Clock.StartStopSync(true)
		return nil
	case parts[0] == "sync" && len(parts) == 1:
		return r.handleSync()
	case parts[0] == "info" && len(parts) == 2:
		return r.handleInfo(parts[1], m.Args)
	case parts[0] == "peertopeer" && len(parts) >= 2:
		return r.handlePeerToPeer(parts[1:], m.Args)
	case parts[0] == "multitouch" && len(parts) == 2:
		return nil // accepted as a known address; not forwarded to input.Mapper.FireMultitouch
	case strings.HasPrefix(parts[0], "#") && len(parts) == 2:
		id, err := strconv.ParseInt(strings.TrimPrefix(parts[0], "#"), 10, 64)
		if err != nil {
			return fmt.Errorf("control: malformed source id %q: %w", parts[0], err)
		}
		src := r.Session.Find(id)
		if src == nil {
			return fmt.Errorf("control: no such source %d", id)
		}
		return r.applyAttrToTargets(parts[1], m.Args, []*source.Source{src})
	case strings.HasPrefix(parts[0], "batch#") && len(parts) == 2:
		n := strings.TrimPrefix(parts[0], "batch#")
		targets := r.resolveIDs(r.Session.Batch(n).IDs())
		return r.applyAttrToTargets(parts[1], m.Args, targets)
	default:
		return fmt.Errorf("control: unrecognized address %q", m.Address)
	}
}

func (r *Router) resolveIDs(ids []int64) []*source.Source {
	out := make([]*source.Source, 0, len(ids))
	for _, id := range ids {
		if src := r.Session.Find(id); src != nil {
			out = append(out, src)
		}
	}
	return out
}

func (r *Router) currentSource() []*source.Source {
	for _, src := range r.Session.Sources() {
		if src.Mode == source.ModeCurrent {
			return []*source.Source{src}
		}
	}
	return nil
}

func (r *Router) stepCurrent(dir int) {
	srcs := r.Session.Sources()
	if len(srcs) == 0 {
		return
	}
	idx := -1
	for i, src := range srcs {
		if src.Mode == source.ModeCurrent {
			idx = i
			break
		}
	}
	next := 0
	if idx >= 0 {
		srcs[idx].SetMode(source.ModeVisible)
		next = (idx + dir + len(srcs)) % len(srcs)
	}
	srcs[next].SetMode(source.ModeCurrent)
}

func (r *Router) handleSession(op string, args []any) error {
	switch op {
	case "version":
		log.Info("session version requested")
	case "open", "save", "close":
		log.Info("session op requested (file I/O is a GUI-layer collaborator)", "op", op)
	default:
		return fmt.Errorf("control: unknown /session op %q", op)
	}
	return nil
}

func (r *Router) handleSync() error {
	log.Info("sync requested", "sourceCount", r.Session.Count())
	return nil
}

func (r *Router) handleInfo(op string, args []any) error {
	msg, _ := osc.ArgString(args, 0)
	switch op {
	case "log":
		log.Info("remote log", "message", msg)
	case "notify":
		log.Info("remote notify", "message", msg)
	default:
		return fmt.Errorf("control: unknown /info op %q", op)
	}
	return nil
}

func (r *Router) handlePeerToPeer(rest []string, args []any) error {
	if r.Peers == nil {
		return fmt.Errorf("control: peer discovery disabled")
	}
	if len(rest) == 0 {
		return fmt.Errorf("control: missing /peertopeer operation")
	}
	switch rest[0] {
	case "connect":
		name, _ := osc.ArgString(args, 0)
		target, err := r.findPeer(name)
		if err != nil {
			return err
		}
		_, _, err = r.Peers.Request(target, r.selfName())
		return err
	case "disconnect":
		name, _ := osc.ArgString(args, 0)
		port, _ := osc.ArgInt(args, 1)
		target, err := r.findPeer(name)
		if err != nil {
			return err
		}
		return r.Peers.Disconnect(target, port)
	default:
		return fmt.Errorf("control: unknown /peertopeer op %q", rest[0])
	}
}

func (r *Router) findPeer(name string) (peer.ConnectionInfo, error) {
	for _, p := range r.Peers.Peers() {
		if p.Name == name {
			return p, nil
		}
	}
	return peer.ConnectionInfo{}, fmt.Errorf("control: unknown peer %q", name)
}

func (r *Router) selfName() string {
	return r.Peers.Self().Name
}
