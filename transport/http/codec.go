// Package httptransport implements the HTTP bridge (C9): a collaborator
// that exposes a Runtime's actors to the outside world as HTTP resources,
// and a RemoteAddress that lets local code address an actor living
// behind someone else's bridge. It is grounded on the request-building
// idiom of chans/httpclient.go, generalized from a one-shot Pub/To Chan
// into the bidirectional call/cast/kill surface actor.Address requires.
package httptransport

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/jsmorph/actorcore/actor"
	"github.com/jsmorph/actorcore/internal/shape"
)

const (
	addressTag = "_pyact_address"
	binaryTag  = "_pyact_binary"
)

// encodeEgress mirrors internal/wire's encodeValue, but an
// actor.Address crossing the wire towards an external peer must carry
// an absolute URL rather than a bare local id: baseURL (the bridge's
// own externally-reachable prefix, "" if none is known) is prepended to
// any local address's id. Remote addresses already carry their own URL
// as their id and pass through unchanged.
func encodeEgress(baseURL string, value interface{}) interface{} {
	switch v := value.(type) {
	case actor.Address:
		id := v.ActorID()
		if !v.IsRemote() && baseURL != "" {
			id = baseURL + "/" + id
		}
		return map[string]interface{}{addressTag: id}
	case shape.Binary:
		return map[string]interface{}{binaryTag: base64.StdEncoding.EncodeToString([]byte(v))}
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, vv := range v {
			out[k] = encodeEgress(baseURL, vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, vv := range v {
			out[i] = encodeEgress(baseURL, vv)
		}
		return out
	default:
		return v
	}
}

// MarshalEgress JSON-encodes value for transmission to an HTTP peer.
// baseURL, if non-empty, is this bridge's own externally-reachable
// prefix, used to turn local addresses embedded in value into
// resolvable absolute URLs.
func MarshalEgress(baseURL string, value interface{}) ([]byte, error) {
	return json.Marshal(encodeEgress(baseURL, value))
}

// decodeIngress mirrors internal/wire's decodeValue. rt (may be nil) is
// consulted when an incoming address's URL matches this bridge's own
// baseURL, so an address a peer echoes back to us resolves to the real
// local actor instead of a RemoteAddress pointed at ourselves. client,
// if non-nil, is used to build a RemoteAddress for any other URL.
func decodeIngress(tree interface{}, rt *actor.Runtime, baseURL string, client *Client) interface{} {
	switch v := tree.(type) {
	case map[string]interface{}:
		if len(v) == 1 {
			if id, ok := v[addressTag]; ok {
				if s, ok := id.(string); ok {
					return resolveIngressAddress(s, rt, baseURL, client)
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
			out[k] = decodeIngress(vv, rt, baseURL, client)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, vv := range v {
			out[i] = decodeIngress(vv, rt, baseURL, client)
		}
		return out
	default:
		return v
	}
}

func resolveIngressAddress(raw string, rt *actor.Runtime, baseURL string, client *Client) interface{} {
	if baseURL != "" && strings.HasPrefix(raw, baseURL+"/") {
		id := strings.TrimPrefix(raw, baseURL+"/")
		if rt != nil {
			if addr, ok := rt.Resolve(id); ok {
				return addr
			}
		}
		return map[string]interface{}{addressTag: raw}
	}
	if looksLikeURL(raw) {
		return NewRemoteAddress(raw, client)
	}
	if rt != nil {
		if addr, ok := rt.Resolve(raw); ok {
			return addr
		}
	}
	return map[string]interface{}{addressTag: raw}
}

// UnmarshalIngress parses JSON bytes received from an HTTP peer,
// reconstructing Address and Binary leaves. Either of rt and baseURL
// may be zero-valued if the caller has no local runtime to resolve
// against (e.g. a bare RemoteAddress client with no bridge of its own).
func UnmarshalIngress(data []byte, rt *actor.Runtime, baseURL string, client *Client) (interface{}, error) {
	var tree interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return decodeIngress(tree, rt, baseURL, client), nil
}

func looksLikeURL(id string) bool {
	return strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://")
}
