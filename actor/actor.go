// Package actor implements the actor lifecycle and mailbox engine (C4),
// the unified address system (C5), the registry (C8), the call
// protocol (C6), and the supervisor/Gather pattern (C7) described in
// the actor runtime specification. Scheduling is realized as one
// goroutine per actor; the mailbox is a private FIFO that selective
// receive scans in place, removing only the matched message so that
// non-matching messages keep their order.
package actor

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jsmorph/actorcore/internal/mailbox"
	"github.com/jsmorph/actorcore/internal/obslog"
	"github.com/jsmorph/actorcore/internal/shape"
	"github.com/jsmorph/actorcore/internal/wire"
)

var log = obslog.New("actor")

// Behavior is a user-provided actor body. It receives the actor's own
// handle (so it can call Receive, Sleep, SpawnLink, etc. without relying
// on goroutine-local "current actor" magic) plus the spawn arguments,
// and returns its exit value or a failure.
//
// A Server (see server.go) is built by wrapping a method table in a
// Behavior via NewServer; there is no separate "object with a main
// method" concept in this port; a closure plays that role instead.
type Behavior func(self *Actor, args ...interface{}) (interface{}, error)

// state is the actor lifecycle state machine: new -> running -> dead.
type state int

const (
	stateNew state = iota
	stateRunning
	stateDead
)

// Actor is a cooperatively-scheduled task with identity, a mailbox, a
// link set, and an exit signal (C4).
type Actor struct {
	rt *Runtime

	idMu sync.RWMutex
	id   string

	mb *mailbox.Mailbox

	linkMu    sync.Mutex
	links     []Address
	exitLinks map[string]bool // subset of links, keyed by ActorID

	behavior Behavior
	args     []interface{}

	stateMu sync.Mutex
	st      state

	done   chan struct{}
	result interface{}
	resErr error

	killOnce sync.Once
	killed   chan struct{} // closed exactly once, by kill()
	killErr  error         // written before killed is closed; safe to read after
}

func newActor(rt *Runtime, behavior Behavior, args []interface{}) *Actor {
	a := &Actor{
		rt:        rt,
		id:        uuid.NewString(),
		mb:        mailbox.New(),
		exitLinks: make(map[string]bool),
		behavior:  behavior,
		args:      args,
		done:      make(chan struct{}),
		killed:    make(chan struct{}),
	}
	return a
}

// ID returns the actor's current id (subject to Rename).
func (a *Actor) ID() string {
	a.idMu.RLock()
	defer a.idMu.RUnlock()
	return a.id
}

func (a *Actor) setID(id string) {
	a.idMu.Lock()
	a.id = id
	a.idMu.Unlock()
}

// Address returns this actor's own Address, suitable for linking or
// handing to another actor so it can reply.
func (a *Actor) Address() Address {
	return &LocalAddress{rt: a.rt, id: a.ID(), act: a}
}

// Rename atomically changes this actor's registry key. It fails
// observably if another actor already holds name.
func (a *Actor) Rename(name string) error {
	oldID := a.ID()
	if err := a.rt.registry.rename(a, name); err != nil {
		return err
	}
	log.Renamed(oldID, name)
	return nil
}

// AddLink appends addr to this actor's link set; if trapExit, addr also
// joins the exit-link set and receives a normal exit notification (not
// just exceptions) on termination.
func (a *Actor) AddLink(addr Address, trapExit bool) {
	a.addLink(addr, trapExit)
}

func (a *Actor) addLink(addr Address, trapExit bool) {
	a.linkMu.Lock()
	defer a.linkMu.Unlock()
	a.links = append(a.links, addr)
	if trapExit {
		a.exitLinks[addr.ActorID()] = true
	}
	log.Linked(a.ID(), addr.ActorID(), trapExit)
}

// start launches the actor's goroutine. Must only be called once, by
// Runtime.Spawn/SpawnLink.
func (a *Actor) start() {
	a.stateMu.Lock()
	a.st = stateRunning
	a.stateMu.Unlock()
	go a.run()
}

func (a *Actor) run() {
	var result interface{}
	var runErr error

	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
			}
		}()
		result, runErr = a.behavior(a, a.args...)
	}()

	a.terminate(result, runErr)
}

// terminate finalizes the exit state and dispatches link notifications,
// following the order mandated by the spec: exception notifications to
// the full link set (only if the actor failed), then exit notifications
// to the exit-link subset (always, using a nil value if the actor
// failed), then registry removal, then closing done so waiters observe
// a fully-settled actor.
func (a *Actor) terminate(result interface{}, runErr error) {
	a.linkMu.Lock()
	links := append([]Address(nil), a.links...)
	exitLinks := make([]Address, 0, len(a.exitLinks))
	for _, l := range links {
		if a.exitLinks[l.ActorID()] {
			exitLinks = append(exitLinks, l)
		}
	}
	a.linkMu.Unlock()

	self := a.Address()

	if runErr != nil {
		formatted := formatException(runErr)
		for _, l := range links {
			_ = l.Cast(map[string]interface{}{"address": self, "exception": formatted})
		}
		result = nil
	}
	for _, l := range exitLinks {
		_ = l.Cast(map[string]interface{}{"address": self, "exit": result})
	}

	a.rt.registry.unregister(a.ID())

	a.stateMu.Lock()
	a.result = result
	a.resErr = runErr
	a.st = stateDead
	a.stateMu.Unlock()

	log.Terminated(a.ID(), runErr)
	close(a.done)
}

// formatException turns a Go error into a JSON-compatible tree, the
// closest analogue to a formatted Python traceback.
func formatException(err error) interface{} {
	return map[string]interface{}{
		"error": err.Error(),
	}
}

func (a *Actor) wait() (interface{}, error) {
	<-a.done
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return a.result, a.resErr
}

// deliver pushes msg into the mailbox, after round-tripping it through
// the same value-copy codec (internal/wire) every non-local transport
// already applies to a cast. This is how a local send avoids handing
// the recipient a reference the sender still holds — mirrors pyact's
// actor.py, whose cast/_cast marshal to JSON and back even for
// in-process delivery (actor.py:174, actor.py:377-378). Called only
// through a live registry lookup, so a dead actor never receives it.
func (a *Actor) deliver(msg interface{}) error {
	encoded, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	resolver := wire.ResolverFunc(func(id string) (shape.Address, bool) {
		return a.rt.Resolve(id)
	})
	decoded, err := wire.Decode(encoded, resolver, nil)
	if err != nil {
		return err
	}
	a.mb.Push(decoded)
	return nil
}

// kill injects a Killed exception at the actor's next suspension point.
func (a *Actor) kill() {
	a.killOnce.Do(func() {
		a.killErr = &Killed{ID: a.ID()}
		log.Killed(a.ID())
		close(a.killed)
	})
}

func (a *Actor) pendingKill() error {
	select {
	case <-a.killed:
		return a.killErr
	default:
		return nil
	}
}

// Receive selects a message out of the mailbox (C4, thin wrapper over
// C3). With no patterns, it returns the first message unconditionally.
// idx is -1 and err is nil on a plain timeout (the spec's (pattern=nil,
// message=nil) sentinel); err is non-nil only if the actor was killed.
func (a *Actor) Receive(timeout time.Duration, patterns ...interface{}) (idx int, msg interface{}, err error) {
	if already := a.pendingKill(); already != nil {
		return -1, nil, already
	}

	effective := patterns
	if len(effective) == 0 {
		effective = []interface{}{shape.Any}
	}
	match := func(candidate interface{}) (int, bool) {
		for i, p := range effective {
			if shape.Match(candidate, p) {
				return i, true
			}
		}
		return -1, false
	}

	msg, idx, ok := a.mb.PopMatching(timeout, a.killed, match)
	if !ok {
		if k := a.pendingKill(); k != nil {
			return -1, nil, k
		}
		return -1, nil, nil
	}
	return idx, msg, nil
}

// Sleep suspends the caller for d, or until killed.
func (a *Actor) Sleep(d time.Duration) error {
	if err := a.pendingKill(); err != nil {
		return err
	}
	select {
	case <-time.After(d):
		return nil
	case <-a.killed:
		return a.pendingKill()
	}
}

// Cooperate yields to the scheduler without a minimum delay.
func (a *Actor) Cooperate() error {
	return a.Sleep(0)
}

// describe returns a JSON-compatible snapshot of the actor's observable
// state, used by the HTTP bridge's GET state dump (C9).
func (a *Actor) describe() map[string]interface{} {
	a.stateMu.Lock()
	st := a.st
	a.stateMu.Unlock()

	stateName := "running"
	if st == stateNew {
		stateName = "new"
	} else if st == stateDead {
		stateName = "dead"
	}

	return map[string]interface{}{
		"id":             a.ID(),
		"state":          stateName,
		"mailbox_length": a.mb.Len(),
	}
}

// SpawnLink spawns a child behavior and links it to this actor with
// trap_exit=true, established before the child can run (equivalent to
// spawn followed by add_link, performed atomically from the caller's
// point of view).
func (a *Actor) SpawnLink(behavior Behavior, args ...interface{}) Address {
	return a.rt.spawn(behavior, args, a)
}
