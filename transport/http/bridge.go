package httptransport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jsmorph/actorcore/actor"
	"github.com/jsmorph/actorcore/internal/mailbox"
	"github.com/jsmorph/actorcore/internal/obslog"
	"github.com/jsmorph/actorcore/schema"
)

var log = obslog.New("bridge")

// BehaviorRegistry maps a whitelisted name to the Behavior it spawns.
// Per the runtime specification's redesign of pyact's wsgiapp.py (which
// spawned actors by exec'ing request-supplied Python source), PUT never
// evaluates caller-supplied code: it can only start a behavior the
// server operator already compiled in and named here.
type BehaviorRegistry map[string]actor.Behavior

// Bridge exposes a Runtime's actors as HTTP resources, one path segment
// per actor id, implementing the verb table from the runtime
// specification's HTTP bridge section (C9):
//
//	PUT    /id   spawn a named behavior and bind it to id   202 / 405
//	POST   /id   cast, or (if shaped like a remotecall) call  202 / 404 / 406 / 408
//	DELETE /id   kill                                         200 / 404
//	GET    /id   state snapshot                               200 / 404
//	HEAD   /id   liveness probe, no body                       200 / 404
type Bridge struct {
	rt        *actor.Runtime
	baseURL   string
	behaviors BehaviorRegistry
	schemas   map[string]*schema.Validator
	client    *Client
}

// NewBridge builds a Bridge over rt. baseURL is this bridge's own
// externally-reachable address (e.g. "http://actors.example.com:8080"),
// used to mint absolute addresses for actors it hands out in messages.
// behaviors is the whitelist PUT is allowed to spawn from.
func NewBridge(rt *actor.Runtime, baseURL string, behaviors BehaviorRegistry) *Bridge {
	return &Bridge{
		rt:        rt,
		baseURL:   strings.TrimRight(baseURL, "/"),
		behaviors: behaviors,
		schemas:   make(map[string]*schema.Validator),
		client:    NewClient(),
	}
}

// SetSchema attaches v as the schema (C13) a POSTed cast or call message
// to path must satisfy before it is dispatched; a message failing
// validation never reaches the target actor. A nil v clears any schema
// previously set for path.
func (b *Bridge) SetSchema(path string, v *schema.Validator) {
	if v == nil {
		delete(b.schemas, path)
		return
	}
	b.schemas[path] = v
}

// ServeHTTP implements http.Handler directly; a Bridge can be mounted
// with http.ListenAndServe or nested under an existing mux.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/")
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	switch r.Method {
	case http.MethodPut:
		b.handlePut(rec, r, id)
	case http.MethodPost:
		b.handlePost(rec, r, id)
	case http.MethodDelete:
		b.handleDelete(rec, id)
	case http.MethodGet:
		b.handleGet(rec, id)
	case http.MethodHead:
		b.handleHead(rec, id)
	default:
		rec.WriteHeader(http.StatusMethodNotAllowed)
	}
	log.Request(r.Method, r.URL.Path, rec.status)
}

// statusRecorder captures the status code a handler wrote, purely for
// the access-log line ServeHTTP emits after dispatch.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

type spawnRequest struct {
	Behavior string        `json:"behavior"`
	Args     []interface{} `json:"args"`
}

func (b *Bridge) handlePut(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req spawnRequest
	if err := json.Unmarshal(body, &req); err != nil {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	behavior, known := b.behaviors[req.Behavior]
	if !known {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	addr := b.rt.Spawn(behavior, req.Args...)
	if err := b.rt.RenameActor(addr.ActorID(), id); err != nil {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{"id": id})
}

func (b *Bridge) handlePost(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	addr, ok := b.rt.Resolve(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusNotAcceptable)
		return
	}
	msg, err := UnmarshalIngress(body, b.rt, b.baseURL, b.client)
	if err != nil {
		w.WriteHeader(http.StatusNotAcceptable)
		return
	}

	if r.URL.RawQuery == "link" {
		b.handleLink(w, id, msg)
		return
	}

	m, isMap := msg.(map[string]interface{})
	if isMap {
		if _, isCall := m["remotecall"]; isCall {
			if v, ok := b.schemas[id]; ok {
				if err := v.Validate(m["message"]); err != nil {
					w.WriteHeader(http.StatusNotAcceptable)
					return
				}
			}
			b.handleRemoteCall(w, addr, m)
			return
		}
	}

	if v, ok := b.schemas[id]; ok {
		if err := v.Validate(msg); err != nil {
			w.WriteHeader(http.StatusNotAcceptable)
			return
		}
	}

	if err := addr.Cast(msg); err != nil {
		if _, dead := err.(*actor.DeadActor); dead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNotAcceptable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (b *Bridge) handleLink(w http.ResponseWriter, id string, msg interface{}) {
	m, ok := msg.(map[string]interface{})
	if !ok {
		w.WriteHeader(http.StatusNotAcceptable)
		return
	}
	remote, ok := m["link"].(actor.Address)
	if !ok {
		w.WriteHeader(http.StatusNotAcceptable)
		return
	}
	trapExit, _ := m["trap_exit"].(bool)
	if err := b.rt.AddExternalLink(id, remote, trapExit); err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (b *Bridge) handleRemoteCall(w http.ResponseWriter, target actor.Address, m map[string]interface{}) {
	method, _ := m["method"].(string)
	message := m["message"]

	timeout := mailbox.Forever
	if secs, ok := m["timeout"].(float64); ok {
		timeout = time.Duration(secs * float64(time.Second))
	}

	type outcome struct {
		val interface{}
		err error
	}
	results := make(chan outcome, 1)
	b.rt.Spawn(func(self *actor.Actor, args ...interface{}) (interface{}, error) {
		v, err := target.Call(self, method, message, timeout)
		results <- outcome{v, err}
		return nil, nil
	})
	res := <-results

	if res.err == nil {
		writeJSON(w, http.StatusAccepted, map[string]interface{}{"message": res.val})
		return
	}
	switch e := res.err.(type) {
	case *actor.RemoteAttributeError:
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"invalid_method": e.Method})
	case *actor.RemoteException:
		writeJSON(w, http.StatusNotAcceptable, map[string]interface{}{"exception": e.Payload})
	case *actor.Timeout:
		writeJSON(w, http.StatusRequestTimeout, map[string]interface{}{"timeout": true})
	default:
		writeJSON(w, http.StatusNotAcceptable, map[string]interface{}{"exception": res.err.Error()})
	}
}

func (b *Bridge) handleDelete(w http.ResponseWriter, id string) {
	if id == "" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	addr, ok := b.rt.Resolve(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	addr.Kill()
	w.WriteHeader(http.StatusOK)
}

func (b *Bridge) handleGet(w http.ResponseWriter, id string) {
	if id == "" {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("actor bridge\n"))
		return
	}
	state, ok := b.rt.Describe(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (b *Bridge) handleHead(w http.ResponseWriter, id string) {
	if id == "" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if _, ok := b.rt.Resolve(id); !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	bs, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(bs)
}
