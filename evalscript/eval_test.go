package evalscript

import (
	"testing"
	"time"

	"github.com/jsmorph/actorcore/actor"
)

func TestScriptReturnsExitValue(t *testing.T) {
	rt := actor.New()
	addr := rt.Spawn(NewBehavior(`2 + 2`))

	v, err := addr.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if v.(int64) != 4 {
		t.Fatalf("got %v (%T)", v, v)
	}
}

func TestScriptCanReceiveAndEcho(t *testing.T) {
	rt := actor.New()
	addr := rt.Spawn(NewBehavior(`actor.Receive(5)`))

	addr.Cast("ping")
	v, err := addr.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if v != "ping" {
		t.Fatalf("got %v", v)
	}
}

func TestScriptThrowFailsTheActor(t *testing.T) {
	rt := actor.New()
	addr := rt.Spawn(NewBehavior(`throw new Error("boom")`))

	if _, err := addr.Wait(); err == nil {
		t.Fatal("expected an error from the thrown exception")
	}
}

func TestScriptSleepSuspends(t *testing.T) {
	rt := actor.New()
	addr := rt.Spawn(NewBehavior(`actor.Sleep(0.05); "done"`))

	start := time.Now()
	v, err := addr.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Fatal("expected the script's sleep to actually suspend the actor")
	}
	if v != "done" {
		t.Fatalf("got %v", v)
	}
}
