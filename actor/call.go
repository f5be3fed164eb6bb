package actor

import (
	"time"

	"github.com/google/uuid"

	"github.com/jsmorph/actorcore/internal/shape"
)

// CallPattern is the shape a Server must recognize to dispatch a
// request: {call: string, method: string, address: Address, message: any}.
var CallPattern = map[string]interface{}{
	"call":    shape.String,
	"method":  shape.String,
	"address": shape.AddressClass,
	"message": shape.Any,
}

func responsePattern(corrID string) map[string]interface{} {
	return map[string]interface{}{"response": corrID, "message": shape.Any}
}
func exceptionResponsePattern(corrID string) map[string]interface{} {
	return map[string]interface{}{"response": corrID, "exception": shape.Any}
}
func invalidMethodPattern(corrID string) map[string]interface{} {
	return map[string]interface{}{"response": corrID, "invalid_method": shape.String}
}

// call implements the correlated request/response protocol (C6) shared
// by LocalAddress.Call: generate a fresh id, cast the call envelope,
// then selectively receive one of the three response shapes.
func call(target Address, caller *Actor, method string, message interface{}, timeout time.Duration) (interface{}, error) {
	corrID := uuid.NewString()

	envelope := map[string]interface{}{
		"call":    corrID,
		"method":  method,
		"address": caller.Address(),
		"message": message,
	}
	if err := target.Cast(envelope); err != nil {
		return nil, err
	}

	rsp := responsePattern(corrID)
	exc := exceptionResponsePattern(corrID)
	inv := invalidMethodPattern(corrID)

	idx, reply, err := caller.Receive(timeout, rsp, exc, inv)
	if err != nil {
		return nil, err
	}
	if idx == -1 {
		return nil, &Timeout{}
	}

	m, _ := reply.(map[string]interface{})
	switch idx {
	case 0:
		return m["message"], nil
	case 1:
		return nil, &RemoteException{Payload: m["exception"]}
	case 2:
		return nil, &RemoteAttributeError{Method: method}
	default:
		return nil, &Timeout{}
	}
}
