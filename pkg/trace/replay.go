package trace

import (
	"context"
	"fmt"

	"github.com/matzehuels/d3fig/pkg/dataset"
	figerr "github.com/matzehuels/d3fig/pkg/errors"
	"github.com/matzehuels/d3fig/pkg/scene"
)

// Replay issues every call of t on b in order. It stops at the first failing
// call, leaving b in whatever state that call found it; documents closed
// before the failure stay in b's finished list. ctx is checked between calls.
func Replay(ctx context.Context, b *scene.Builder, t *Trace) error {
	for i, c := range t.Calls {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.step.apply(b); err != nil {
			return fmt.Errorf("call %d (%s): %w", i, c.Op, err)
		}
	}
	return nil
}

// Build replays t into a fresh builder and returns the finished documents
// together with the builder's dataset counters. A trace that leaves a figure
// open fails with a PROTOCOL_ERROR.
func Build(ctx context.Context, t *Trace, opts ...scene.Option) ([]*scene.Document, dataset.Stats, error) {
	b := scene.NewBuilder(opts...)
	if err := Replay(ctx, b, t); err != nil {
		return nil, b.Stats(), err
	}
	if s := b.State(); s != scene.StateIdle {
		return nil, b.Stats(), figerr.Protocol("end of trace", scene.StateIdle, s)
	}
	return b.Drain(), b.Stats(), nil
}
