// Package shape implements the structural pattern matcher that drives
// selective receive. A pattern is a JSON-shaped tree whose leaves are
// either concrete values (matched by equality) or Class tokens (matched
// by conformance).
package shape

import "reflect"

// Class is a type-class token usable as a pattern leaf.
type Class int

const (
	// Any matches every value.
	Any Class = iota
	// Integer matches a number with no fractional part.
	Integer
	// Number matches any numeric value.
	Number
	// String matches a string value.
	String
	// Boolean matches a bool value.
	Boolean
	// Sequence matches any ordered sequence ([]interface{}).
	Sequence
	// Mapping matches any mapping (map[string]interface{}).
	Mapping
	// AddressClass matches any decoded actor address.
	AddressClass
	// BinaryClass matches any decoded binary blob.
	BinaryClass
)

func (c Class) String() string {
	switch c {
	case Any:
		return "any"
	case Integer:
		return "integer"
	case Number:
		return "number"
	case String:
		return "string"
	case Boolean:
		return "boolean"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	case AddressClass:
		return "Address"
	case BinaryClass:
		return "Binary"
	default:
		return "unknown"
	}
}

// Binary is the decoded representation of a {"_pyact_binary": ...} blob.
type Binary []byte

// Address is satisfied by any decoded actor address. The actor package's
// address types implement it structurally; this package has no
// dependency on the actor package so there is no import cycle.
type Address interface {
	ActorID() string
}

// Match reports whether value conforms to pattern. It is total and
// side-effect-free: every JSON-shaped value/pattern pair decides cleanly
// rather than panicking.
func Match(value, pattern interface{}) bool {
	if class, ok := pattern.(Class); ok {
		return conforms(value, class)
	}

	switch pat := pattern.(type) {
	case map[string]interface{}:
		val, ok := value.(map[string]interface{})
		if !ok {
			return false
		}
		for k, pv := range pat {
			vv, present := val[k]
			if !present || !Match(vv, pv) {
				return false
			}
		}
		return true
	case []interface{}:
		val, ok := value.([]interface{})
		if !ok || len(val) != len(pat) {
			return false
		}
		for i, pv := range pat {
			if !Match(val[i], pv) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(value, pattern)
	}
}

func conforms(value interface{}, class Class) bool {
	switch class {
	case Any:
		return true
	case Integer:
		switch n := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return n == float64(int64(n))
		}
		return false
	case Number:
		switch value.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case String:
		_, ok := value.(string)
		return ok
	case Boolean:
		_, ok := value.(bool)
		return ok
	case Sequence:
		_, ok := value.([]interface{})
		return ok
	case Mapping:
		_, ok := value.(map[string]interface{})
		return ok
	case AddressClass:
		_, ok := value.(Address)
		return ok
	case BinaryClass:
		_, ok := value.(Binary)
		return ok
	default:
		return false
	}
}
