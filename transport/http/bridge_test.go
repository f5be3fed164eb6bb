package httptransport

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/jsmorph/actorcore/actor"
	"github.com/jsmorph/actorcore/schema"
)

// spawnBehavior issues the HTTP PUT that binds name to path on srv.
func spawnBehavior(t *testing.T, srvURL, path, name string) {
	t.Helper()
	bs, err := MarshalEgress("", map[string]interface{}{"behavior": name, "args": []interface{}{}})
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPut, srvURL+"/"+path, bytes.NewReader(bs))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("PUT %s/%s: got status %s", srvURL, path, resp.Status)
	}
}

func echoBehavior() actor.Behavior {
	return actor.NewServer(actor.Methods{
		"upper": {Handler: func(self *actor.Actor, message interface{}) (interface{}, error) {
			s, _ := message.(string)
			out := ""
			for _, r := range s {
				if r >= 'a' && r <= 'z' {
					r -= 'a' - 'A'
				}
				out += string(r)
			}
			return out, nil
		}},
	}, nil, nil)
}

func TestBridgeSpawnCastKillOverHTTP(t *testing.T) {
	rt := actor.New()
	received := make(chan interface{}, 1)
	behaviors := BehaviorRegistry{
		"collector": func(self *actor.Actor, args ...interface{}) (interface{}, error) {
			_, msg, err := self.Receive(5 * time.Second)
			if err != nil {
				return nil, err
			}
			received <- msg
			// Stay alive until the test kills this actor over HTTP.
			return nil, self.Sleep(time.Minute)
		},
	}

	srv := httptest.NewServer(NewBridge(rt, "", behaviors))
	defer srv.Close()

	client := NewClient()
	spawnBehavior(t, srv.URL, "worker-1", "collector")

	remote := NewRemoteAddress(srv.URL+"/worker-1", client)
	if err := remote.Cast("hello"); err != nil {
		t.Fatalf("cast failed: %v", err)
	}

	select {
	case v := <-received:
		if v != "hello" {
			t.Fatalf("got %v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the spawned actor to receive the cast")
	}

	if _, ok := rt.Resolve("worker-1"); !ok {
		t.Fatal("expected worker-1 to be registered locally after the HTTP PUT")
	}

	if err := remote.Kill(); err != nil {
		t.Fatalf("kill failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := rt.Resolve("worker-1"); ok {
		t.Fatal("expected worker-1 to be unregistered after kill")
	}
}

// Testable property 13: PUT with an unknown behavior name is rejected
// (405) and spawns nothing.
func TestBridgeSpawnRejectsUnknownBehavior(t *testing.T) {
	rt := actor.New()
	behaviors := BehaviorRegistry{
		"collector": func(self *actor.Actor, args ...interface{}) (interface{}, error) {
			return nil, nil
		},
	}

	srv := httptest.NewServer(NewBridge(rt, "", behaviors))
	defer srv.Close()

	bs, err := MarshalEgress("", map[string]interface{}{"behavior": "not-whitelisted", "args": []interface{}{}})
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/worker-2", bytes.NewReader(bs))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for an unwhitelisted behavior, got %s", resp.Status)
	}
	if _, ok := rt.Resolve("worker-2"); ok {
		t.Fatal("expected no actor to be spawned for an unwhitelisted behavior")
	}
}

func TestBridgeCallRoundTrip(t *testing.T) {
	rt := actor.New()
	behaviors := BehaviorRegistry{"echo": echoBehavior()}

	srv := httptest.NewServer(NewBridge(rt, "", behaviors))
	defer srv.Close()

	client := NewClient()
	spawnBehavior(t, srv.URL, "echo-1", "echo")
	addr := NewRemoteAddress(srv.URL+"/echo-1", client)

	result, err := addr.Call(nil, "upper", "shout", time.Second)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if result != "SHOUT" {
		t.Fatalf("got unexpected reply: %s", spew.Sdump(result))
	}

	if _, err := addr.Call(nil, "missing", nil, time.Second); err == nil {
		t.Fatal("expected RemoteAttributeError for an unknown method")
	} else if _, ok := err.(*actor.RemoteAttributeError); !ok {
		t.Fatalf("expected *actor.RemoteAttributeError, got %T: %v", err, err)
	}
}

// Testable property 12 (HTTP path): a POST failing its route's declared
// schema is rejected with 406 and never reaches the target's mailbox.
func TestBridgePostRejectsMessageFailingSchema(t *testing.T) {
	rt := actor.New()
	received := make(chan interface{}, 1)
	behaviors := BehaviorRegistry{
		"collector": func(self *actor.Actor, args ...interface{}) (interface{}, error) {
			_, msg, err := self.Receive(2 * time.Second)
			if err != nil {
				return nil, err
			}
			received <- msg
			return nil, nil
		},
	}

	bridge := NewBridge(rt, "", behaviors)
	bridge.SetSchema("worker-3", schema.FromDocument([]byte(`{"type": "string"}`)))

	srv := httptest.NewServer(bridge)
	defer srv.Close()

	spawnBehavior(t, srv.URL, "worker-3", "collector")
	addr := NewRemoteAddress(srv.URL+"/worker-3", NewClient())

	bs, err := MarshalEgress("", 42)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/worker-3", bytes.NewReader(bs))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotAcceptable {
		t.Fatalf("expected 406 for a message failing its schema, got %s", resp.Status)
	}

	if err := addr.Cast("a conforming string"); err != nil {
		t.Fatalf("cast failed: %v", err)
	}
	select {
	case v := <-received:
		if v != "a conforming string" {
			t.Fatalf("got %v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the conforming cast")
	}
}

func TestRemoteAddressWaitIsUnsupported(t *testing.T) {
	addr := NewRemoteAddress("http://example.invalid/x", nil)
	if _, err := addr.Wait(); err == nil {
		t.Fatal("expected RemoteWaitUnsupported")
	} else if _, ok := err.(*actor.RemoteWaitUnsupported); !ok {
		t.Fatalf("expected *actor.RemoteWaitUnsupported, got %T", err)
	}
}
