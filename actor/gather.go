package actor

import (
	"github.com/jsmorph/actorcore/internal/mailbox"
	"github.com/jsmorph/actorcore/internal/shape"
)

// exitPattern and exceptionPattern are the two shapes a linked observer
// (with trap_exit) distinguishes between on a child's termination (C7).
var (
	exitPattern      = map[string]interface{}{"exit": shape.Any, "address": shape.AddressClass}
	exceptionPattern = map[string]interface{}{"exception": shape.Any, "address": shape.AddressClass}
)

// gatherBehavior builds the Gather actor's Behavior: it spawn_links
// each child itself (so it, not the original caller, supervises them),
// then records each termination message against the child's address,
// flushing results in spawn order as soon as a contiguous prefix is
// available.
func gatherBehavior(behaviors []Behavior) Behavior {
	return func(self *Actor, _ ...interface{}) (interface{}, error) {
		addrs := make([]Address, len(behaviors))
		for i, b := range behaviors {
			addrs[i] = self.SpawnLink(b)
		}

		messages := make(map[string]interface{}, len(addrs))
		cursor := 0
		results := make([]interface{}, 0, len(addrs))

		for len(results) < len(addrs) {
			_, msg, err := self.Receive(mailbox.Forever, exitPattern, exceptionPattern)
			if err != nil {
				return nil, err
			}
			m, _ := msg.(map[string]interface{})
			addr, _ := m["address"].(Address)
			if addr == nil {
				continue
			}
			messages[addr.ActorID()] = m

			for cursor < len(addrs) {
				v, ok := messages[addrs[cursor].ActorID()]
				if !ok {
					break
				}
				results = append(results, v)
				cursor++
			}
		}

		return results, nil
	}
}
