package actor

import (
	"github.com/jsmorph/actorcore/internal/mailbox"
	"github.com/jsmorph/actorcore/internal/shape"
	"github.com/jsmorph/actorcore/schema"
)

// asCall validates that orig matches CallPattern, returning its fields.
func asCall(orig interface{}) (map[string]interface{}, bool) {
	if !shape.Match(orig, CallPattern) {
		return nil, false
	}
	m, ok := orig.(map[string]interface{})
	return m, ok
}

// Respond replies to orig (a received call envelope) with a successful
// payload. It is InvalidCallMessage if orig is not shaped like a call.
func Respond(orig interface{}, payload interface{}) error {
	m, ok := asCall(orig)
	if !ok {
		return &InvalidCallMessage{}
	}
	replyTo, ok := m["address"].(Address)
	if !ok {
		return &InvalidCallMessage{}
	}
	return replyTo.Cast(map[string]interface{}{"response": m["call"], "message": payload})
}

// RespondInvalidMethod replies that orig named a method this server
// does not implement.
func RespondInvalidMethod(orig interface{}, methodName string) error {
	m, ok := asCall(orig)
	if !ok {
		return &InvalidCallMessage{}
	}
	replyTo, ok := m["address"].(Address)
	if !ok {
		return &InvalidCallMessage{}
	}
	return replyTo.Cast(map[string]interface{}{"response": m["call"], "invalid_method": methodName})
}

// RespondException replies that handling orig failed. err is formatted
// into a JSON-compatible tree.
func RespondException(orig interface{}, err error) error {
	m, ok := asCall(orig)
	if !ok {
		return &InvalidCallMessage{}
	}
	replyTo, ok := m["address"].(Address)
	if !ok {
		return &InvalidCallMessage{}
	}
	return replyTo.Cast(map[string]interface{}{"response": m["call"], "exception": formatException(err)})
}

// Handler is a single RPC handler's implementation.
type Handler func(self *Actor, message interface{}) (interface{}, error)

// Method pairs a Handler with an optional Schema (C13): when Schema is
// non-nil, a call's message is validated against it before Handler
// ever runs, the same way dsl/spec.go's step Schema fields gate a
// Pub/Recv. A message that fails validation never reaches Handler; the
// caller instead receives the same exception shape RespondException
// would produce for an *InvalidCallMessage, since the message was
// never usable as a call payload to begin with.
type Method struct {
	Handler Handler
	Schema  *schema.Validator
}

// Methods is a Server's dispatch table, keyed by method name.
type Methods map[string]Method

// NewServer builds a Behavior that loops forever, accepting only
// CallPattern messages, dispatching to methods by name, and replying
// with exactly one of the three response shapes, per the Server
// contract (C6). start and stop (either may be nil) run before the
// first receive and after the loop ends (including on kill or panic),
// mirroring Server.start/Server.stop in the reference implementation.
func NewServer(methods Methods, start, stop func(self *Actor) error) Behavior {
	return func(self *Actor, args ...interface{}) (result interface{}, err error) {
		if start != nil {
			if err := start(self); err != nil {
				return nil, err
			}
		}
		if stop != nil {
			defer func() { _ = stop(self) }()
		}

		for {
			_, msg, rerr := self.Receive(mailbox.Forever, CallPattern)
			if rerr != nil {
				return nil, rerr
			}
			m := msg.(map[string]interface{})
			methodName, _ := m["method"].(string)

			method, known := methods[methodName]
			if !known {
				_ = RespondInvalidMethod(m, methodName)
				continue
			}

			if method.Schema != nil {
				if err := method.Schema.Validate(m["message"]); err != nil {
					_ = RespondException(m, &InvalidCallMessage{})
					continue
				}
			}

			func() {
				defer func() {
					if r := recover(); r != nil {
						_ = RespondException(m, panicToError(r))
					}
				}()
				reply, herr := method.Handler(self, m["message"])
				if herr != nil {
					_ = RespondException(m, herr)
					return
				}
				_ = Respond(m, reply)
			}()
		}
	}
}
