package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/d3fig/pkg/dataset"
	figerr "github.com/matzehuels/d3fig/pkg/errors"
	"github.com/matzehuels/d3fig/pkg/observability"
	"github.com/matzehuels/d3fig/pkg/scene"
	"github.com/matzehuels/d3fig/pkg/trace"
)

// Build replays t into figure documents. Figures the trace opens without an
// id get a UUID derived from traceHash and their position, so building the
// same trace twice yields the same ids.
func Build(ctx context.Context, t *trace.Trace, traceHash string, logger *log.Logger) ([]*scene.Document, dataset.Stats, error) {
	hooks := observability.Pipeline()
	hooks.OnBuildStart(ctx, len(t.Calls))
	start := time.Now()

	docs, stats, err := trace.Build(ctx, t,
		scene.WithLogger(logger),
		scene.WithFigureIDs(FigureIDs(traceHash)),
	)

	datasets := 0
	for _, d := range docs {
		datasets += len(d.Data)
	}
	hooks.OnBuildComplete(ctx, len(docs), datasets, time.Since(start), err)
	if err != nil {
		return nil, stats, err
	}
	if len(docs) == 0 {
		return nil, stats, figerr.New(figerr.ErrCodeInvalidInput, "trace contains no figures")
	}
	return docs, stats, nil
}

// FigureIDs returns a deterministic figure id source seeded by traceHash.
func FigureIDs(traceHash string) func() string {
	n := 0
	return func() string {
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d", traceHash, n)))
		n++
		return id.String()
	}
}

// selectFigures applies Options.Figure.
func selectFigures(docs []*scene.Document, figure int) ([]*scene.Document, error) {
	if figure == 0 {
		return docs, nil
	}
	if figure > len(docs) {
		return nil, figerr.New(figerr.ErrCodeInvalidInput, "figure %d out of range (trace has %d)", figure, len(docs))
	}
	return docs[figure-1 : figure], nil
}
