// Package evalscript implements the eval actor (C12): a behavior whose
// body is JS source executed by github.com/dop251/goja, grounded on
// wsgiapp.py's EvalActor (which exec'd Python source with the actor's
// methods in scope) and on dsl/spec.go's Guard/Run fields, which
// evaluate JS against an environment of bound values.
//
// Per the runtime specification's redesign of spawn_remote (see
// SPEC_FULL.md §9), this is a local-only spawn path: nothing in
// transport/http's Bridge ever accepts a request body containing JS
// source, so a remote peer can never reach NewBehavior. Operators who
// want it still get it — they just have to compile it in, the same way
// every other named behavior is compiled in.
package evalscript

import (
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/jsmorph/actorcore/actor"
	"github.com/jsmorph/actorcore/internal/mailbox"
)

// NewBehavior parses and runs src in a fresh goja runtime each time the
// behavior runs, with an `actor` object in scope exposing
// the actor's receive/cast/sleep operations to the script, and `args`
// bound to the Behavior's spawn arguments.
//
// The script's completion value becomes the actor's exit value; a
// thrown JS exception becomes the actor's failure, formatted the same
// way a Go panic is (see actor.formatException).
func NewBehavior(src string) actor.Behavior {
	return func(self *actor.Actor, args ...interface{}) (interface{}, error) {
		vm := goja.New()

		if err := vm.Set("args", args); err != nil {
			return nil, fmt.Errorf("binding args: %w", err)
		}
		if err := vm.Set("actor", newScriptHandle(self, vm)); err != nil {
			return nil, fmt.Errorf("binding actor handle: %w", err)
		}

		value, err := vm.RunString(src)
		if err != nil {
			return nil, fmt.Errorf("evaluating script: %w", err)
		}
		return value.Export(), nil
	}
}

// scriptHandle is the `actor` object a script sees: a narrow surface
// over *actor.Actor, translated to plain Go values goja can marshal
// across the JS/Go boundary without exposing the Actor type itself.
type scriptHandle struct {
	self *actor.Actor
	vm   *goja.Runtime
}

func newScriptHandle(self *actor.Actor, vm *goja.Runtime) *scriptHandle {
	return &scriptHandle{self: self, vm: vm}
}

// Receive blocks for up to timeoutSeconds (0 means forever) and returns
// the next message, or null on a plain timeout.
func (h *scriptHandle) Receive(timeoutSeconds float64) (interface{}, error) {
	timeout := mailbox.Forever
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds * float64(time.Second))
	}
	_, msg, err := h.self.Receive(timeout)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// Sleep suspends the script's actor for seconds.
func (h *scriptHandle) Sleep(seconds float64) error {
	return h.self.Sleep(time.Duration(seconds * float64(time.Second)))
}

// Cast sends message to the target address, the same way
// actor.Address.Cast would from Go.
func (h *scriptHandle) Cast(target actor.Address, message interface{}) error {
	return target.Cast(message)
}

// ID returns the running script's own actor id, for scripts that want
// to hand out their address indirectly (e.g. embed it in a cast).
func (h *scriptHandle) ID() string {
	return h.self.ID()
}
