package actor

import (
	"testing"
	"time"

	"github.com/jsmorph/actorcore/internal/mailbox"
	"github.com/jsmorph/actorcore/internal/shape"
)

func constResult(v interface{}) Behavior {
	return func(self *Actor, args ...interface{}) (interface{}, error) {
		return v, nil
	}
}

// Scenario 1: basic wait.
func TestBasicWait(t *testing.T) {
	rt := New()
	addr := rt.Spawn(func(self *Actor, args ...interface{}) (interface{}, error) {
		return 2 + 2, nil
	})
	v, err := addr.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if v.(int) != 4 {
		t.Fatalf("got %v", v)
	}
}

// Scenario 2: linked exit.
func TestLinkedExit(t *testing.T) {
	rt := New()
	done := make(chan interface{}, 1)
	rt.Spawn(func(parent *Actor, args ...interface{}) (interface{}, error) {
		child := parent.SpawnLink(constResult("hi"))
		_, msg, err := parent.Receive(mailbox.Forever,
			map[string]interface{}{"exit": shape.Any, "address": shape.AddressClass})
		if err != nil {
			return nil, err
		}
		m := msg.(map[string]interface{})
		addr := m["address"].(Address)
		if addr.ActorID() != child.ActorID() {
			return nil, nil
		}
		done <- m["exit"]
		return nil, nil
	})
	select {
	case v := <-done:
		if v.(string) != "hi" {
			t.Fatalf("got %v", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for linked exit")
	}
}

// Scenario 3: linked exception.
func TestLinkedException(t *testing.T) {
	rt := New()
	done := make(chan interface{}, 1)
	rt.Spawn(func(parent *Actor, args ...interface{}) (interface{}, error) {
		parent.SpawnLink(func(self *Actor, args ...interface{}) (interface{}, error) {
			panic("boom")
		})
		_, msg, err := parent.Receive(mailbox.Forever,
			map[string]interface{}{"exception": shape.Any, "address": shape.AddressClass})
		if err != nil {
			return nil, err
		}
		m := msg.(map[string]interface{})
		done <- m["exception"]
		return nil, nil
	})
	select {
	case v := <-done:
		formatted := v.(map[string]interface{})
		msg := formatted["error"].(string)
		if !contains(msg, "boom") {
			t.Fatalf("expected 'boom' in %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for linked exception")
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

// Scenario 6: kill.
func TestKill(t *testing.T) {
	rt := New()
	addr := rt.Spawn(func(self *Actor, args ...interface{}) (interface{}, error) {
		for {
			if err := self.Sleep(10 * time.Millisecond); err != nil {
				return nil, err
			}
		}
	})
	time.Sleep(20 * time.Millisecond)
	if err := addr.Kill(); err != nil {
		t.Fatal(err)
	}
	_, err := addr.Wait()
	if err == nil {
		t.Fatal("expected Killed error")
	}
	if _, ok := err.(*Killed); !ok {
		t.Fatalf("expected *Killed, got %T: %v", err, err)
	}
}

// Scenario 7: wait_all ordering.
func TestWaitAllOrdering(t *testing.T) {
	rt := New()
	results, err := rt.WaitAll(
		func(self *Actor, args ...interface{}) (interface{}, error) {
			time.Sleep(30 * time.Millisecond)
			return 1, nil
		},
		func(self *Actor, args ...interface{}) (interface{}, error) {
			return 2, nil
		},
		func(self *Actor, args ...interface{}) (interface{}, error) {
			time.Sleep(10 * time.Millisecond)
			return 3, nil
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	// Exit values pass through the same wire round-trip every cast now
	// does, so a plain Go int comes back as a JSON number (float64).
	for i, want := range []float64{1, 2, 3} {
		m := results[i].(map[string]interface{})
		if m["exit"].(float64) != want {
			t.Fatalf("index %d: got %v, want %v", i, m["exit"], want)
		}
	}
}

// Scenario 8: selective receive.
func TestSelectiveReceive(t *testing.T) {
	rt := New()
	addr := rt.Spawn(func(self *Actor, args ...interface{}) (interface{}, error) {
		// Give the test time to push A, B, C before we selectively
		// receive only C.
		time.Sleep(20 * time.Millisecond)
		idx, msg, err := self.Receive(mailbox.Forever, "C")
		if err != nil || idx != 0 || msg != "C" {
			return nil, err
		}
		idx, msg, err = self.Receive(0, shape.Any)
		if err != nil || msg != "A" {
			return "wrong order", nil
		}
		_ = idx
		idx, msg, err = self.Receive(0, shape.Any)
		if err != nil || msg != "B" {
			return "wrong order", nil
		}
		return "ok", nil
	})
	addr.Cast("A")
	addr.Cast("B")
	addr.Cast("C")
	v, err := addr.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if v != "ok" {
		t.Fatalf("got %v", v)
	}
}

func TestDeadActorCastFails(t *testing.T) {
	rt := New()
	addr := rt.Spawn(constResult("done"))
	if _, err := addr.Wait(); err != nil {
		t.Fatal(err)
	}
	if err := addr.Cast("too late"); err == nil {
		t.Fatal("expected DeadActor casting to a terminated actor")
	} else if _, ok := err.(*DeadActor); !ok {
		t.Fatalf("expected *DeadActor, got %T", err)
	}
}

func TestRepeatedWaitIsIdempotent(t *testing.T) {
	rt := New()
	addr := rt.Spawn(constResult(7))
	v1, err1 := addr.Wait()
	v2, err2 := addr.Wait()
	if err1 != nil || err2 != nil {
		t.Fatalf("errs: %v %v", err1, err2)
	}
	if v1.(int) != 7 || v2.(int) != 7 {
		t.Fatalf("expected idempotent results, got %v %v", v1, v2)
	}
}

func TestRenameConflict(t *testing.T) {
	rt := New()
	done1, done2 := make(chan struct{}), make(chan struct{})
	rt.Spawn(func(self *Actor, args ...interface{}) (interface{}, error) {
		_ = self.Rename("taken")
		close(done1)
		<-done2
		return nil, nil
	})
	<-done1
	var renameErr error
	addr := rt.Spawn(func(self *Actor, args ...interface{}) (interface{}, error) {
		renameErr = self.Rename("taken")
		return nil, nil
	})
	addr.Wait()
	close(done2)
	if renameErr == nil {
		t.Fatal("expected NameTaken error")
	}
	if _, ok := renameErr.(*NameTaken); !ok {
		t.Fatalf("expected *NameTaken, got %T", renameErr)
	}
}
