package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/d3fig/pkg/dataset"
	"github.com/matzehuels/d3fig/pkg/pipeline"
	"github.com/matzehuels/d3fig/pkg/scene"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	tableHeaderStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "inspect [trace.json]",
		Short: "Browse the figures, axes and datasets of a trace",
		Long: `Browse the figures, axes and datasets of a trace.

Opens an interactive view when stdout is a terminal. Use --plain to print
summary tables instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return fmt.Errorf("read trace %s: %w", args[0], err)
			}
			runner := pipeline.NewRunner(nil, nil, c.Logger)
			result, err := runner.Execute(cmd.Context(), data, pipeline.Options{Logger: loggerFromContext(cmd.Context())})
			if err != nil {
				return err
			}

			if plain || !isTerminal(os.Stdout) {
				return writeSummary(os.Stdout, result.Documents, result.Stats.Registry)
			}
			m := NewFigureListModel(result.Documents)
			m.Stats = result.Stats.Registry
			_, err = tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print tables instead of the interactive view")
	return cmd
}

// isTerminal reports whether f is a character device.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// =============================================================================
// Summaries
// =============================================================================

// figureRow summarizes one figure for the list view.
func figureRow(doc *scene.Document) []string {
	return []string{
		doc.ID,
		fmt.Sprintf("%g×%g", doc.Width, doc.Height),
		fmt.Sprint(len(doc.Axes)),
		fmt.Sprint(doc.Primitives()),
		fmt.Sprint(len(doc.Data)),
		fmt.Sprint(len(doc.Plugins)),
	}
}

// axesRows summarizes each axes of doc.
func axesRows(doc *scene.Document) [][]string {
	rows := make([][]string, 0, len(doc.Axes))
	for _, ax := range doc.Axes {
		rows = append(rows, []string{
			ax.ID,
			fmt.Sprint(len(ax.Lines)),
			fmt.Sprint(len(ax.Paths)),
			fmt.Sprint(len(ax.Markers)),
			fmt.Sprint(len(ax.Collections)),
			fmt.Sprint(len(ax.Texts)),
			fmt.Sprint(len(ax.Images)),
		})
	}
	return rows
}

// datasetRows lists every dataset of doc with its shape and the number of
// primitives that reference it.
func datasetRows(doc *scene.Document) [][]string {
	uses := make(map[string]int)
	for _, ref := range doc.Refs() {
		uses[ref.Label]++
	}
	labels := make([]string, 0, len(doc.Data))
	for label := range doc.Data {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	rows := make([][]string, 0, len(labels))
	for _, label := range labels {
		t := doc.Data[label]
		cols := 0
		if len(t) > 0 {
			cols = len(t[0])
		}
		rows = append(rows, []string{label, fmt.Sprint(len(t)), fmt.Sprint(cols), fmt.Sprint(uses[label])})
	}
	return rows
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

var (
	figureHeaders  = []string{"Figure", "Size", "Axes", "Elements", "Datasets", "Plugins"}
	axesHeaders    = []string{"Axes", "Lines", "Paths", "Markers", "Collections", "Texts", "Images"}
	datasetHeaders = []string{"Dataset", "Rows", "Columns", "Used by"}
)

// registryLine describes how much column sharing the registry found.
func registryLine(s dataset.Stats) string {
	return fmt.Sprintf("%d arrays · %d datasets · %d merged · %d columns reused · %d appended",
		s.Adds, s.Created, s.Merged, s.ColumnsReused, s.ColumnsAppended)
}

// writeSummary prints the tables for every document followed by the
// registry counters.
func writeSummary(w io.Writer, docs []*scene.Document, stats dataset.Stats) error {
	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, figureRow(doc))
	}
	if _, err := fmt.Fprintln(w, renderTable(figureHeaders, rows)); err != nil {
		return err
	}
	for _, doc := range docs {
		fmt.Fprintln(w)
		fmt.Fprintln(w, StyleTitle.Render(doc.ID))
		fmt.Fprintln(w, renderTable(axesHeaders, axesRows(doc)))
		if len(doc.Data) > 0 {
			fmt.Fprintln(w, renderTable(datasetHeaders, datasetRows(doc)))
		}
	}
	fmt.Fprintln(w)
	_, err := fmt.Fprintln(w, listDimStyle.Render(registryLine(stats)))
	return err
}

// =============================================================================
// FigureListModel - Interactive figure browser
// =============================================================================

// FigureListModel is the bubbletea model for browsing built figures. Enter
// opens the axes and datasets of the selected figure; esc goes back.
type FigureListModel struct {
	Figures []*scene.Document
	Stats   dataset.Stats
	Cursor  int
	Open    bool
	Height  int
	Offset  int
}

// NewFigureListModel creates a new figure list model.
func NewFigureListModel(docs []*scene.Document) FigureListModel {
	return FigureListModel{
		Figures: docs,
		Height:  15,
	}
}

func (m FigureListModel) Init() tea.Cmd {
	return nil
}

func (m FigureListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc", "backspace":
			if !m.Open {
				return m, tea.Quit
			}
			m.Open = false
		case "up", "k":
			if !m.Open && m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if !m.Open && m.Cursor < len(m.Figures)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Figures) > 0 {
				m.Open = true
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m FigureListModel) View() string {
	if m.Open {
		return m.detailView()
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Figures"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Figures))
	for i := m.Offset; i < end; i++ {
		row := figureRow(m.Figures[i])
		line := fmt.Sprintf("%-12s %-12s %s axes  %s elements  %s datasets", row[0], row[1], row[2], row[3], row[4])
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %s", m.Cursor+1, len(m.Figures), registryLine(m.Stats))))
	return b.String()
}

func (m FigureListModel) detailView() string {
	doc := m.Figures[m.Cursor]

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Figure " + doc.ID))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%g×%g px", doc.Width, doc.Height)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("esc back  q quit"))
	b.WriteString("\n\n")
	b.WriteString(renderTable(axesHeaders, axesRows(doc)))
	b.WriteString("\n")
	if len(doc.Data) > 0 {
		b.WriteString(renderTable(datasetHeaders, datasetRows(doc)))
		b.WriteString("\n")
	}
	for _, p := range doc.Plugins {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  plugin %s (%s)", p.Type, p.ID)))
		b.WriteString("\n")
	}
	return b.String()
}
