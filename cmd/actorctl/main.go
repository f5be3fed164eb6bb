// Command actorctl is a human-usable front door onto a running HTTP
// bridge (C9/C15): spawn, cast, call, or kill an actor by its bridge
// URL. Structured the way the teacher lays out cmd/plaxrun as the human
// front door onto the DSL engine.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	httptransport "github.com/jsmorph/actorcore/transport/http"
)

func main() {
	var (
		bridgeURL = flag.String("bridge", "", "base URL of the actor this command addresses, e.g. http://localhost:8080/my-actor")
		behavior  = flag.String("behavior", "", "for spawn: the whitelisted behavior name to start")
		method    = flag.String("method", "", "for call: the method name")
		timeout   = flag.Duration("timeout", 5*time.Second, "for call: how long to wait for a reply")
	)
	flag.Parse()

	if *bridgeURL == "" || flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: actorctl -bridge <actor-url> [-behavior name | -method name] spawn|cast|call|kill [message-json]")
		os.Exit(2)
	}

	cmd := flag.Arg(0)
	client := httptransport.NewClient()
	addr := httptransport.NewRemoteAddress(*bridgeURL, client)

	var message interface{}
	if flag.NArg() > 1 {
		if err := json.Unmarshal([]byte(flag.Arg(1)), &message); err != nil {
			fail("parsing message argument as JSON: %v", err)
		}
	}

	switch cmd {
	case "spawn":
		if *behavior == "" {
			fail("spawn requires -behavior")
		}
		args, _ := message.([]interface{})
		if message != nil && args == nil {
			args = []interface{}{message}
		}
		if err := spawn(*bridgeURL, *behavior, args); err != nil {
			fail("spawn: %v", err)
		}
		fmt.Println("spawned")

	case "cast":
		if err := addr.Cast(message); err != nil {
			fail("cast: %v", err)
		}
		fmt.Println("cast accepted")

	case "call":
		if *method == "" {
			fail("call requires -method")
		}
		result, err := addr.Call(nil, *method, message, *timeout)
		if err != nil {
			fail("call: %v", err)
		}
		printJSON(result)

	case "kill":
		if err := addr.Kill(); err != nil {
			fail("kill: %v", err)
		}
		fmt.Println("killed")

	default:
		fail("unknown command %q", cmd)
	}
}

// spawn issues the bridge's spawn request directly: PUT isn't part of
// the actor.Address contract RemoteAddress implements (spawning a path
// is bridge-administration, not an operation any actor address
// supports), so it's built here the same way bridge_test.go's
// spawnBehavior helper builds it.
func spawn(bridgeURL, behavior string, args []interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"behavior": behavior,
		"args":     args,
	})
	if err != nil {
		return fmt.Errorf("encoding spawn request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPut, bridgeURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("bridge responded %s", resp.Status)
	}
	return nil
}

func printJSON(v interface{}) {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fail("formatting result: %v", err)
	}
	fmt.Println(string(bs))
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "actorctl: "+format+"\n", args...)
	os.Exit(1)
}
