package cli

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/matzehuels/d3fig/pkg/observability"
	"github.com/matzehuels/d3fig/pkg/pipeline"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		retries int
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve [trace.json]",
		Short: "Serve the figures of a trace over HTTP",
		Long: `Serve the figures of a trace over HTTP.

Routes:
  /                  index of figures
  /figures/{n}       standalone page for figure n (1-based)
  /figures/{n}.json  figure document
  /healthz           liveness check

If the port is taken, the next ones are tried (up to --retries).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.ServeAddr
			}
			if !cmd.Flags().Changed("retries") {
				retries = c.Config.ServeRetries
			}
			return c.runServe(cmd.Context(), args[0], addr, retries, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8888", "address to listen on")
	cmd.Flags().IntVar(&retries, "retries", 50, "number of following ports to try when the port is taken")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, input, addr string, retries int, noCache bool) error {
	logger := loggerFromContext(ctx)

	data, err := readInput(input)
	if err != nil {
		return fmt.Errorf("read trace %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		Formats: []string{pipeline.FormatJSON, pipeline.FormatHTML},
		Logger:  logger,
	}
	opts.HTML.Page = true
	opts.HTML.D3URL = c.Config.D3URL
	opts.HTML.MPLD3URL = c.Config.MPLD3URL

	result, err := runner.Execute(ctx, data, opts)
	if err != nil {
		return err
	}

	ln, err := listenFirstFree(addr, retries)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      newFigureRouter(result),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	url := "http://" + ln.Addr().String() + "/"
	printSuccess("Serving %d figure(s)", len(result.Figures))
	fmt.Println("  " + StyleLink.Render(url))
	printNextStep("Stop with", "ctrl+c")

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// listenFirstFree listens on addr, or on the first free port among the
// retries ports that follow it.
func listenFirstFree(addr string, retries int) (net.Listener, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	if port == 0 {
		return net.Listen("tcp", addr)
	}

	var lastErr error
	for i := 0; i <= retries; i++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port+i)))
		if err == nil {
			return ln, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no free port in %d..%d: %w", port, port+retries, lastErr)
}

// =============================================================================
// Router
// =============================================================================

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>d3fig</title></head>
<body>
<ul>
{{range $i, $d := .}}<li><a href="/figures/{{inc $i}}">{{$d.ID}}</a> ({{$d.Width}}×{{$d.Height}}) <a href="/figures/{{inc $i}}.json">json</a></li>
{{end}}</ul>
</body>
</html>
`))

// newFigureRouter serves the documents and html pages of result.
func newFigureRouter(result *pipeline.Result) http.Handler {
	r := chi.NewRouter()
	r.Use(hooksMiddleware)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTemplate.Execute(w, result.Documents); err != nil {
			observability.HTTP().OnError(req.Context(), req.Method, req.URL.Path, err)
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/figures/{n}", func(w http.ResponseWriter, req *http.Request) {
		n, format := chi.URLParam(req, "n"), pipeline.FormatHTML
		if trimmed, ok := strings.CutSuffix(n, ".json"); ok {
			n, format = trimmed, pipeline.FormatJSON
		}
		artifacts, ok := figureArtifacts(result, n)
		if !ok {
			http.NotFound(w, req)
			return
		}
		if format == pipeline.FormatJSON {
			w.Header().Set("Content-Type", "application/json")
		} else {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		w.Write(artifacts[format])
	})

	return r
}

// figureArtifacts looks up the artifacts of the 1-based figure n.
func figureArtifacts(result *pipeline.Result, n string) (map[string][]byte, bool) {
	i, err := strconv.Atoi(n)
	if err != nil || i < 1 || i > len(result.Figures) {
		return nil, false
	}
	return result.Figures[i-1], true
}

// statusRecorder captures the response status for the HTTP hooks.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// hooksMiddleware reports every request to the registered HTTP hooks.
func hooksMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hooks := observability.HTTP()
		start := time.Now()
		hooks.OnRequest(req.Context(), req.Method, req.URL.Path)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)

		hooks.OnResponse(req.Context(), req.Method, req.URL.Path, rec.status, time.Since(start))
	})
}
