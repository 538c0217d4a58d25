package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/d3fig/pkg/pipeline"
	"github.com/matzehuels/d3fig/pkg/store"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string // output file (single artifact) or base path
	noCache bool   // bypass the artifact cache entirely
	save    bool   // save the built documents to the document store
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		ro         renderOpts
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [trace.json]",
		Short: "Render a recorded trace to figure documents",
		Long: `Render a recorded trace to figure documents.

The trace is replayed into one document per figure. Each requested format is
written next to the input (or to --output):

  json  mpld3 figure document
  html  snippet or --page that draws the figure with d3 and mpld3
  dot   Graphviz diagram of which elements share which datasets
  svg   the same diagram rendered by Graphviz

Use "-" to read the trace from stdin. Results are cached locally.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, ro)
		},
	}

	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file (single figure and format) or base path")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), html, dot, svg (comma-separated)")
	cmd.Flags().IntVar(&opts.Figure, "figure", 0, "render only the n-th figure (1-based)")
	cmd.Flags().BoolVar(&opts.Indent, "indent", false, "pretty-print json output")
	cmd.Flags().BoolVar(&opts.HTML.Page, "page", false, "wrap html output in a standalone page")
	cmd.Flags().StringVar(&opts.HTML.Title, "title", "", "page title for --page")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show dataset shapes in dot/svg diagrams")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&ro.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&ro.save, "store", false, "save figure documents to the document store")

	return cmd
}

// runRender executes the pipeline and writes every artifact.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, ro renderOpts) error {
	logger := loggerFromContext(ctx)

	data, err := readInput(input)
	if err != nil {
		return fmt.Errorf("read trace %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, ro.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = logger
	opts.HTML.D3URL = c.Config.D3URL
	opts.HTML.MPLD3URL = c.Config.MPLD3URL

	spinner := newSpinnerWithContext(ctx, "Building figures...")
	spinner.Start()
	result, err := runner.Execute(ctx, data, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	prog := newProgress(logger)
	written := 0
	paths := outputPaths(ro.output, input, len(result.Figures), opts.Formats)
	for i, artifacts := range result.Figures {
		for _, format := range opts.Formats {
			path := paths[i][format]
			if err := writeOutput(path, artifacts[format]); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			written++
			if path != "-" {
				printFile(path)
			}
		}
	}

	prog.done("Wrote artifacts", "count", written)

	if ro.save {
		if err := c.saveDocuments(ctx, result); err != nil {
			return err
		}
	}

	if ro.output == "-" {
		return nil
	}
	printSuccess("Rendered %d figure(s)", result.Stats.Figures)
	printStats(result.Stats.Figures, result.Stats.Datasets, result.CacheInfo.Hit)
	return nil
}

func (c *CLI) saveDocuments(ctx context.Context, result *pipeline.Result) error {
	st, err := c.newStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	for _, doc := range result.Documents {
		if err := st.Put(ctx, store.NewRecord(doc)); err != nil {
			return fmt.Errorf("store %s: %w", doc.ID, err)
		}
		printDetail("Stored %s", doc.ID)
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.json, .html, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		if input == "-" {
			return "figure"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPaths maps every (figure, format) pair to a file path. A single
// artifact goes exactly to output when one is given ("-" for stdout).
// Otherwise files are named base.format, or base_N.format for several figures.
func outputPaths(output, input string, figures int, formats []string) []map[string]string {
	paths := make([]map[string]string, figures)
	single := figures == 1 && len(formats) == 1 && output != ""
	base := basePath(output, input)

	for i := range paths {
		paths[i] = make(map[string]string, len(formats))
		for _, f := range formats {
			switch {
			case single:
				paths[i][f] = output
			case figures == 1:
				paths[i][f] = base + "." + f
			default:
				paths[i][f] = fmt.Sprintf("%s_%d.%s", base, i+1, f)
			}
		}
	}
	return paths
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is "-", it returns os.Stdout wrapped in nopCloser.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

func writeOutput(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
