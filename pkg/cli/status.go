package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"gmailfilter2csv/pkg/convert"
)

// statusWriter keeps the confirmation off stdout when stdout carries the CSV.
func statusWriter(cmd *cobra.Command, output string) io.Writer {
	if output == convert.Stdout {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}

func printCompleted(w io.Writer, res convert.Result) error {
	r := lipgloss.NewRenderer(w)
	done := r.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	count := r.NewStyle().Faint(true)

	_, err := fmt.Fprintf(w, "%s %s %s\n",
		done.Render("Conversion completed:"),
		res.Output,
		count.Render(fmt.Sprintf("(%d filters)", res.Entries)),
	)
	return err
}
