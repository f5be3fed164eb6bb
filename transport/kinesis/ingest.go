// Package kinesis implements the background ingest collaborator (C11):
// a consumer that drains a Kinesis stream and casts each decoded record
// to one fixed local actor, directly grounded on dsl/spec.go's Ingest
// struct (Topic/ClientId/Schema/Exec casting i.ch.To(ctx, m)), adapted
// from that DSL-step idiom to a standing background feeder built on
// github.com/harlow/kinesis-consumer and github.com/aws/aws-sdk-go.
package kinesis

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws/session"
	awskinesis "github.com/aws/aws-sdk-go/service/kinesis"
	consumer "github.com/harlow/kinesis-consumer"

	"github.com/jsmorph/actorcore/actor"
	"github.com/jsmorph/actorcore/internal/wire"
)

// scanner is the slice of *consumer.Consumer this package drives;
// narrowing to it lets tests substitute a fake without a live stream.
type scanner interface {
	Scan(ctx context.Context, fn func(*consumer.Record) error) error
}

// Consumer drains one Kinesis stream, casting every decoded record to
// a single fixed target.
type Consumer struct {
	scanner scanner
	target  actor.Address
}

// New builds a Consumer for streamName using the default AWS session,
// casting every decoded record to target.
func New(streamName string, target actor.Address) (*Consumer, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %w", err)
	}
	client := awskinesis.New(sess)

	c, err := consumer.New(streamName, consumer.WithClient(client))
	if err != nil {
		return nil, fmt.Errorf("creating kinesis consumer for %s: %w", streamName, err)
	}
	return &Consumer{scanner: c, target: target}, nil
}

// Run blocks, casting each decoded record to the target, until ctx is
// cancelled or a record's handler returns an error. A record whose Data
// is not valid JSON is skipped rather than aborting the scan, since one
// malformed record shouldn't take down an otherwise-healthy ingest.
func (c *Consumer) Run(ctx context.Context) error {
	return c.scanner.Scan(ctx, func(r *consumer.Record) error {
		decoded, err := wire.Decode(r.Data, nil, nil)
		if err != nil {
			return nil
		}
		return c.target.Cast(decoded)
	})
}
