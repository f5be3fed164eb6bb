// Package mqtt is an alternate remote-cast collaborator (C10): a
// fire-and-forget bridge between an MQTT broker and the local actor
// mesh. It has no response channel, so unlike transport/http it does
// not implement actor.Address — it is a feeder into actors, not a peer
// address space. Grounded on the teacher's Chan interface shape
// (Pub/Sub/To in chans/httpclient.go and chans/eliza/eliza.go),
// generalized from a one-shot test double into a production transport
// backed by github.com/eclipse/paho.mqtt.golang.
package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/jsmorph/actorcore/actor"
	"github.com/jsmorph/actorcore/internal/wire"
)

// pahoClient is the slice of paho.Client this package actually drives;
// narrowing to it lets tests substitute a fake without a live broker.
type pahoClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Disconnect(quiesce uint)
}

// Publisher wraps a connected MQTT client.
type Publisher struct {
	client pahoClient
}

// Connect dials brokerURL and returns a ready Publisher.
func Connect(brokerURL, clientID string) (*Publisher, error) {
	opts := paho.NewClientOptions().AddBroker(brokerURL).SetClientID(clientID)
	c := paho.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connecting to %s timed out", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", brokerURL, err)
	}
	return &Publisher{client: c}, nil
}

// Close disconnects cleanly, waiting up to 250ms for in-flight work.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

// Cast encodes message with the same wire codec the actor runtime uses
// locally and publishes it to topic at QoS 1, unretained.
func (p *Publisher) Cast(topic string, message interface{}) error {
	bs, err := wire.Encode(message)
	if err != nil {
		return err
	}
	token := p.client.Publish(topic, 1, false, bs)
	token.Wait()
	return token.Error()
}

// Subscribe decodes every message arriving on topic and casts it to
// target, exactly as a local cast would deliver it — an MQTT
// subscriber cannot tell the sender was remote.
func (p *Publisher) Subscribe(topic string, target actor.Address) error {
	handler := func(_ paho.Client, msg paho.Message) {
		decoded, err := wire.Decode(msg.Payload(), nil, nil)
		if err != nil {
			return
		}
		target.Cast(decoded)
	}
	token := p.client.Subscribe(topic, 1, handler)
	token.Wait()
	return token.Error()
}
