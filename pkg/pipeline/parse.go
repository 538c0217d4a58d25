package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/d3fig/pkg/observability"
	"github.com/matzehuels/d3fig/pkg/trace"
)

// Parse decodes a recorded trace.
func Parse(ctx context.Context, data []byte) (*trace.Trace, error) {
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, len(data))
	start := time.Now()

	t, err := trace.Parse(data)
	calls := 0
	if t != nil {
		calls = len(t.Calls)
	}
	hooks.OnParseComplete(ctx, calls, time.Since(start), err)
	return t, err
}
