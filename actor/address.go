package actor

import (
	"time"
)

// Address is an opaque reference to an actor, local or remote (C5).
// LocalAddress and RemoteAddress (the latter defined in
// transport/http) both satisfy it so callers never need to know which
// kind they're holding.
type Address interface {
	// ActorID returns the id (or, for a remote address, the URL) that
	// identifies the target. Two addresses denoting the same actor
	// compare equal by this string, which is what Gather uses as a
	// map key instead of requiring Address to be Go-comparable.
	ActorID() string

	// Cast is a fire-and-forget send.
	Cast(message interface{}) error

	// Call sends a correlated request and waits (up to timeout, or
	// indefinitely if timeout is mailbox.Forever) for one of the three
	// response shapes. caller is the actor issuing the call; its
	// mailbox is where the reply is expected to land.
	Call(caller *Actor, method string, message interface{}, timeout time.Duration) (interface{}, error)

	// Link adds caller's address to the target's link set.
	Link(caller *Actor, trapExit bool) error

	// Wait blocks until the target terminates and returns its result,
	// or re-raises its failure. Unsupported on a RemoteAddress.
	Wait() (interface{}, error)

	// Kill forcibly terminates the target with a Killed exception.
	Kill() error

	// IsRemote distinguishes a RemoteAddress from a LocalAddress
	// without a type assertion into a collaborator package.
	IsRemote() bool
}

// LocalAddress holds an ActorId and resolves through the registry on
// every liveness-sensitive use (the weak-reference design note): an id
// with no live entry behaves exactly like a dangling weak reference
// would. It also keeps a direct *Actor pointer for Wait (see act below).
type LocalAddress struct {
	rt *Runtime
	id string

	// act is a direct reference to the actor struct, used only by
	// Wait. Operations that must observe liveness (Cast, Link, Kill)
	// deliberately go through the registry instead, so that once an
	// actor is unregistered they report DeadActor even though the Go
	// struct itself (unlike a CPython weakref target) is still
	// reachable. Wait needs the opposite: its result must stay
	// queryable after the actor is gone from the registry (the exit
	// signal is idempotent), so it bypasses the registry entirely.
	act *Actor
}

// ActorID implements Address and shape.Address.
func (a *LocalAddress) ActorID() string { return a.id }

// IsRemote implements Address.
func (a *LocalAddress) IsRemote() bool { return false }

func (a *LocalAddress) resolve() (*Actor, error) {
	act, ok := a.rt.registry.lookup(a.id)
	if !ok {
		return nil, &DeadActor{ID: a.id}
	}
	return act, nil
}

// Cast implements Address.
func (a *LocalAddress) Cast(message interface{}) error {
	act, err := a.resolve()
	if err != nil {
		return err
	}
	return act.deliver(message)
}

// Call implements Address.
func (a *LocalAddress) Call(caller *Actor, method string, message interface{}, timeout time.Duration) (interface{}, error) {
	return call(a, caller, method, message, timeout)
}

// Link implements Address.
func (a *LocalAddress) Link(caller *Actor, trapExit bool) error {
	act, err := a.resolve()
	if err != nil {
		return err
	}
	act.addLink(caller.Address(), trapExit)
	return nil
}

// Wait implements Address.
func (a *LocalAddress) Wait() (interface{}, error) {
	return a.act.wait()
}

// Kill implements Address.
func (a *LocalAddress) Kill() error {
	act, err := a.resolve()
	if err != nil {
		return err
	}
	act.kill()
	return nil
}
