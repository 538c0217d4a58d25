package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/d3fig/pkg/scene/sink"
)

// docsCommand creates the stored document management command.
func (c *CLI) docsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage stored figure documents",
		Long: `Manage figure documents saved with "render --store".

Documents live in the configured store backend (file, mongo or memory).`,
	}

	cmd.AddCommand(c.docsListCommand())
	cmd.AddCommand(c.docsGetCommand())
	cmd.AddCommand(c.docsDeleteCommand())

	return cmd
}

func (c *CLI) docsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			recs, err := st.List(ctx)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				printInfo("No stored documents")
				return nil
			}

			rows := make([][]string, 0, len(recs))
			for _, r := range recs {
				rows = append(rows, []string{
					r.ID,
					fmt.Sprintf("%g×%g", r.Width, r.Height),
					r.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Println(renderTable([]string{"ID", "Size", "Stored"}, rows))
			return nil
		},
	}
}

func (c *CLI) docsGetCommand() *cobra.Command {
	var (
		output string
		indent bool
	)

	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Print a stored figure document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			rec, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}

			var opts []sink.JSONOption
			if indent {
				opts = append(opts, sink.WithIndent())
			}
			data, err := sink.RenderJSON(rec.Document, opts...)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = os.Stdout.Write(append(data, '\n'))
				return err
			}
			if err := writeOutput(output, data); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&indent, "indent", false, "pretty-print the document")
	return cmd
}

func (c *CLI) docsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			if err := st.Delete(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Deleted %s", args[0])
			return nil
		},
	}
}
