package kinesis

import (
	"context"
	"testing"
	"time"

	awskinesis "github.com/aws/aws-sdk-go/service/kinesis"
	consumer "github.com/harlow/kinesis-consumer"

	"github.com/jsmorph/actorcore/actor"
)

func record(data string) *consumer.Record {
	return &consumer.Record{Record: &awskinesis.Record{Data: []byte(data)}}
}

type fakeScanner struct {
	records []*consumer.Record
}

func (f *fakeScanner) Scan(ctx context.Context, fn func(*consumer.Record) error) error {
	for _, r := range f.records {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func TestRunCastsDecodedRecordsToTarget(t *testing.T) {
	rt := actor.New()
	received := make(chan interface{}, 2)
	target := rt.Spawn(func(self *actor.Actor, args ...interface{}) (interface{}, error) {
		for i := 0; i < 2; i++ {
			_, msg, err := self.Receive(time.Second)
			if err != nil {
				return nil, err
			}
			received <- msg
		}
		return nil, nil
	})

	c := &Consumer{
		scanner: &fakeScanner{records: []*consumer.Record{
			record(`"first"`),
			record(`"second"`),
		}},
		target: target,
	}

	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	first := <-received
	second := <-received
	if first != "first" || second != "second" {
		t.Fatalf("got %v, %v", first, second)
	}
}

func TestRunSkipsMalformedRecords(t *testing.T) {
	rt := actor.New()
	received := make(chan interface{}, 1)
	target := rt.Spawn(func(self *actor.Actor, args ...interface{}) (interface{}, error) {
		_, msg, err := self.Receive(time.Second)
		if err != nil {
			return nil, err
		}
		received <- msg
		return nil, nil
	})

	c := &Consumer{
		scanner: &fakeScanner{records: []*consumer.Record{
			record(`not json`),
			record(`"ok"`),
		}},
		target: target,
	}

	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if v := <-received; v != "ok" {
		t.Fatalf("got %v", v)
	}
}
