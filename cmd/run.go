package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jonesrussell/north-cloud/harvester/internal/bootstrap"
	"github.com/spf13/cobra"
)

const maxTitleWidth = 70

func newRunCommand() *cobra.Command {
	var (
		topics    []string
		showTable bool
	)

	cmd := &cobra.Command{
		Use:   "run [topic...]",
		Short: "Run the pipeline once",
		Long: `Run the pipeline once for the given topics. Topics can be passed as
arguments or with repeated --topic flags.`,
		Example: `  harvester run tariffs "ai chips"
  harvester run --topic tariffs --topic "interest rates" --table`,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := append(append([]string(nil), topics...), args...)
			return withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				result, err := app.Runner.Run(ctx, all)
				if err != nil {
					return err
				}
				if showTable {
					renderResult(cmd.OutOrStdout(), result)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVarP(&topics, "topic", "t", nil, "topic to search for (repeatable)")
	cmd.Flags().BoolVar(&showTable, "table", false, "print the collected articles as a table")

	return cmd
}

// renderResult prints one row per article followed by a summary footer.
func renderResult(w io.Writer, result *bootstrap.RunResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Run %s (%s)", result.RunID, result.Key))

	t.AppendHeader(table.Row{"#", "Topic", "Publisher", "Title", "Chars"})
	for i, a := range result.Articles {
		t.AppendRow(table.Row{
			i + 1,
			a.Topic,
			a.Publisher,
			truncate(a.Title, maxTitleWidth),
			strconv.Itoa(utf8.RuneCountInString(a.Text)),
		})
	}
	t.AppendFooter(table.Row{
		"", "", "",
		fmt.Sprintf("%d kept, %d duplicates", len(result.Articles), result.Duplicates),
		result.Duration.Round(time.Millisecond).String(),
	})

	t.Render()
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-1]) + "…"
}
