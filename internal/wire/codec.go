// Package wire implements the message codec (C2): encoding and decoding
// of arbitrary JSON-shaped messages, including the two reserved tags
// that round-trip Addresses and binary blobs across the local and
// remote transports.
package wire

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jsmorph/actorcore/internal/shape"
)

const (
	addressTag = "_pyact_address"
	binaryTag  = "_pyact_binary"
)

// Resolver looks up a local actor address by id. Decode uses it to turn
// a bare actor id embedded in a message back into a live Address; a
// miss is not an error, it just means the id no longer denotes a
// running actor (or was never local), not that the message is broken.
type Resolver interface {
	Resolve(id string) (shape.Address, bool)
}

// RemoteFactory builds a shape.Address for an id that looks like a URL
// rather than a bare local actor id.
type RemoteFactory func(url string) shape.Address

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(id string) (shape.Address, bool)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(id string) (shape.Address, bool) { return f(id) }

// ProtocolError reports a decode failure: invalid JSON is fatal to the
// decoding caller.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("protocol error: %v", e.Err) }
func (e *ProtocolError) Unwrap() error { return e.Err }

// Encode serializes a value as JSON, emitting the reserved address and
// binary tags for shape.Address and shape.Binary leaves.
func Encode(value interface{}) ([]byte, error) {
	tree := encodeValue(value)
	bs, err := json.Marshal(tree)
	if err != nil {
		return nil, &ProtocolError{Err: err}
	}
	return bs, nil
}

func encodeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case shape.Address:
		return map[string]interface{}{addressTag: v.ActorID()}
	case shape.Binary:
		return map[string]interface{}{binaryTag: base64.StdEncoding.EncodeToString([]byte(v))}
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, vv := range v {
			out[k] = encodeValue(vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, vv := range v {
			out[i] = encodeValue(vv)
		}
		return out
	default:
		return v
	}
}

// Decode parses JSON bytes into a generic message tree, reconstructing
// Address and Binary leaves from their reserved-tag encodings. resolver
// (may be nil) is consulted for bare actor ids; remote turns URL-shaped
// ids into remote addresses.
func Decode(data []byte, resolver Resolver, remote RemoteFactory) (interface{}, error) {
	var tree interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, &ProtocolError{Err: err}
	}
	return decodeValue(tree, resolver, remote), nil
}

func decodeValue(tree interface{}, resolver Resolver, remote RemoteFactory) interface{} {
	switch v := tree.(type) {
	case map[string]interface{}:
		if len(v) == 1 {
			if id, ok := v[addressTag]; ok {
				if s, ok := id.(string); ok {
					return decodeAddress(s, resolver, remote)
				}
			}
			if b64, ok := v[binaryTag]; ok {
				if s, ok := b64.(string); ok {
					if bs, err := base64.StdEncoding.DecodeString(s); err == nil {
						return shape.Binary(bs)
					}
				}
			}
		}
		out := make(map[string]interface{}, len(v))
		for k, vv := range v {
			out[k] = decodeValue(vv, resolver, remote)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, vv := range v {
			out[i] = decodeValue(vv, resolver, remote)
		}
		return out
	default:
		return v
	}
}

func decodeAddress(id string, resolver Resolver, remote RemoteFactory) interface{} {
	if looksLikeURL(id) {
		if remote != nil {
			return remote(id)
		}
		return map[string]interface{}{addressTag: id}
	}
	if resolver != nil {
		if addr, ok := resolver.Resolve(id); ok {
			return addr
		}
	}
	// Unknown id: not a protocol error, the address is simply dead.
	// Callers that care can detect this via a failed type assertion.
	return map[string]interface{}{addressTag: id}
}

func looksLikeURL(id string) bool {
	return strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://")
}
