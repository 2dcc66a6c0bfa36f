// Package app wires the dependency-injected process context: Settings,
// Session, action History/Snapshots, the tempo Clock, the InputMapper,
// peer discovery, and the OSC control Router, in place of the global
// singletons a GUI-first rewrite would reach for.
package app

import (
	"fmt"
	"time"

	"github.com/mixcore/core/internal/action"
	"github.com/mixcore/core/internal/control"
	"github.com/mixcore/core/internal/input"
	"github.com/mixcore/core/internal/logging"
	"github.com/mixcore/core/internal/osc"
	"github.com/mixcore/core/internal/peer"
	"github.com/mixcore/core/internal/session"
	"github.com/mixcore/core/internal/settings"
	"github.com/mixcore/core/internal/tempo"
)

var log = logging.L("app")

// App is the top-level, dependency-injected process context. It owns
// no global state; every collaborator is a plain struct field,
// constructed once in New/Start and passed explicitly where needed.
type App struct {
	Settings  *settings.Settings
	Session   *session.Session
	History   *action.History
	Snapshots *action.SnapshotStore
	Clock     *tempo.Clock
	Input     *input.Mapper
	Router    *control.Router
	Peers     *peer.Manager

	Lock *InstanceLock

	controlConn *osc.Conn
	stopCh      chan struct{}
}

// New builds an App's in-process collaborators from cfg. Peer discovery
// and the OSC control socket are started separately via Start, since
// they bind network resources.
func New(cfg *settings.Settings) *App {
	c := cfg.Config()
	sess := session.New(c.OutputWidth, c.OutputHeight)
	hist := action.NewHistory(sess)
	snaps := action.NewSnapshotStore(sess)
	clock := tempo.New()
	mapper := input.New(sess, clock)
	router := control.NewRouter(sess, hist, snaps, clock, nil)

	return &App{
		Settings: cfg,
		Session:  sess,
		History:  hist,
		Snapshots: snaps,
		Clock:    clock,
		Input:    mapper,
		Router:   router,
		stopCh:   make(chan struct{}),
	}
}

// Start acquires the instance lock, opens the OSC control socket at
// Config.OSCPortBase+instance id, and (if broadcastIP is non-empty)
// starts peer discovery. name identifies this instance to peers.
func (a *App) Start(lockDir, name, broadcastIP string, lowBandwidth bool) error {
	lock, err := AcquireInstanceLock(lockDir)
	if err != nil {
		return fmt.Errorf("app: acquire instance lock: %w", err)
	}
	a.Lock = lock

	cfg := a.Settings.Config()
	conn, err := osc.Listen(cfg.OSCPortBase + lock.ID())
	if err != nil {
		lock.Release()
		return fmt.Errorf("app: open control socket: %w", err)
	}
	a.controlConn = conn
	go a.controlReceiveLoop()

	if broadcastIP != "" {
		accept := func(clientName string) bool { return true }
		peers, err := peer.Start(name, broadcastIP, accept, lowBandwidth)
		if err != nil {
			log.Warn("peer discovery failed to start", "err", err)
		} else {
			a.Peers = peers
			a.Router.Peers = peers
		}
	}

	log.Info("app started", "instance_id", lock.ID(), "control_port", conn.LocalPort())
	return nil
}

func (a *App) controlReceiveLoop() {
	for {
		select {
		case <-a.stopCh:
			return
		default:
		}
		msg, _, err := a.controlConn.Receive()
		if err != nil {
			continue // timeout or transient read error; retry
		}
		a.Router.Dispatch(msg)
	}
}

// Tick advances every time-driven collaborator by dt and renders the
// session. Call once per display frame from inside the (out-of-scope)
// GUI's active ebiten loop, which Input.Tick's keyboard polling
// requires.
func (a *App) Tick(dt time.Duration) {
	a.Input.Tick()
	a.Router.Tick(dt)
	a.Session.Render(dt)
}

// TickHeadless advances every collaborator except InputMapper, whose
// keyboard polling requires an active ebiten game loop that a headless
// or --test run never starts. Used by cmd/mixcore's headless tick loop.
func (a *App) TickHeadless(dt time.Duration) {
	a.Router.Tick(dt)
	a.Session.Render(dt)
}

// Stop releases every network resource and the instance lock. Safe to
// call more than once; calls after the first are no-ops.
func (a *App) Stop() {
	select {
	case <-a.stopCh:
		return
	default:
	}
	close(a.stopCh)
	if a.controlConn != nil {
		a.controlConn.Close()
	}
	if a.Peers != nil {
		a.Peers.Stop()
	}
	if a.Lock != nil {
		if err := a.Lock.Release(); err != nil {
			log.Warn("release instance lock", "err", err)
		}
	}
}
