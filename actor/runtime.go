package actor

// Runtime is the explicit, threadable alternative to a process-wide
// global registry (the "global registry -> explicit runtime context"
// design note). Most programs need only one, held as a package-level
// singleton created at startup; tests may create several to run
// isolated actor universes side by side.
type Runtime struct {
	registry *registry
}

// New returns a fresh, empty Runtime.
func New() *Runtime {
	return &Runtime{registry: newRegistry()}
}

// Spawn starts a new actor running behavior with args and returns its
// Address. The actor is registered before its goroutine starts, so a
// Cast issued after Spawn returns reaches the mailbox unless the
// behavior has already returned, in which case it fails with DeadActor.
func (rt *Runtime) Spawn(behavior Behavior, args ...interface{}) Address {
	return rt.spawn(behavior, args, nil)
}

// spawn is shared by Runtime.Spawn and Actor.SpawnLink; linker, if
// non-nil, is linked to the new actor with trap_exit=true before the
// actor's goroutine starts, so the link can never race a fast exit.
func (rt *Runtime) spawn(behavior Behavior, args []interface{}, linker *Actor) Address {
	a := newActor(rt, behavior, args)
	rt.registry.register(a)
	if linker != nil {
		a.addLink(linker.Address(), true)
	}
	a.start()
	log.Spawned(a.ID())
	return a.Address()
}

// RenameActor renames the actor currently registered under oldID to
// newID. It is how a collaborator (such as the HTTP bridge) assigns a
// caller-chosen path to a freshly spawned actor.
func (rt *Runtime) RenameActor(oldID, newID string) error {
	a, ok := rt.registry.lookup(oldID)
	if !ok {
		return &DeadActor{ID: oldID}
	}
	if err := rt.registry.rename(a, newID); err != nil {
		return err
	}
	log.Renamed(oldID, newID)
	return nil
}

// AddExternalLink links remote (an address this Runtime did not create,
// typically a RemoteAddress reached over an HTTP bridge) to the local
// actor targetID, the same way addLink would if the caller were a local
// *Actor. This is how transport/http's bridge services a remote Link
// request, which arrives with no local *Actor to call AddLink through.
func (rt *Runtime) AddExternalLink(targetID string, remote Address, trapExit bool) error {
	a, ok := rt.registry.lookup(targetID)
	if !ok {
		return &DeadActor{ID: targetID}
	}
	a.addLink(remote, trapExit)
	return nil
}

// Describe returns a JSON-compatible snapshot of a live actor's
// observable state, used by the HTTP bridge's GET state dump.
func (rt *Runtime) Describe(id string) (map[string]interface{}, bool) {
	a, ok := rt.registry.lookup(id)
	if !ok {
		return nil, false
	}
	return a.describe(), true
}

// Resolve looks up a live local actor by id, returning its Address.
// This is how the HTTP bridge and remote address decoding turn a bare
// actor id embedded in a message back into something callable.
func (rt *Runtime) Resolve(id string) (Address, bool) {
	a, ok := rt.registry.lookup(id)
	if !ok {
		return nil, false
	}
	return a.Address(), true
}

// WaitAll spawns one child per behavior (via an internal Gather actor,
// itself unlinked to the caller) and returns their termination messages
// in spawn order, regardless of the order in which the children
// actually finish (C7).
func (rt *Runtime) WaitAll(behaviors ...Behavior) ([]interface{}, error) {
	addr := rt.Spawn(gatherBehavior(behaviors))
	result, err := addr.Wait()
	if err != nil {
		return nil, err
	}
	msgs, _ := result.([]interface{})
	return msgs, nil
}
