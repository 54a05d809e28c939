package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/moolen/laneview/internal/engine"
	"github.com/moolen/laneview/internal/importexport"
	"github.com/moolen/laneview/internal/palette"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type paletteOptions struct {
	eventsPath string
	hash       bool
}

func newPaletteCmd(_ *globalOptions) *cobra.Command {
	o := &paletteOptions{}

	cmd := &cobra.Command{
		Use:   "palette [namespace...]",
		Short: "Show the color assigned to each namespace",
		Long: `Assign namespace colors in first-seen order, or by hash with --hash.
Namespaces come from the arguments followed by those found in --events.

Examples:
  laneview palette shop payments
  laneview palette --events ./events.json --hash`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}

	cmd.Flags().StringVar(&o.eventsPath, "events", "", "Event file or directory to read namespaces from")
	cmd.Flags().BoolVar(&o.hash, "hash", false, "Pick colors by namespace hash instead of first-seen order")

	return cmd
}

func (o *paletteOptions) run(cmd *cobra.Command, args []string) error {
	namespaces := append([]string{}, args...)

	if o.eventsPath != "" {
		bundle, report, err := importexport.NewImporter().Load(o.eventsPath)
		if err != nil {
			return fmt.Errorf("failed to load events: %w", err)
		}
		if report.InvalidEvents > 0 {
			fmt.Fprint(cmd.ErrOrStderr(), importexport.FormatImportReport(report))
		}
		namespaces = append(namespaces, sortedKeys(engine.SplitByNamespace(bundle.Events))...)
	}

	if len(namespaces) == 0 {
		return fmt.Errorf("no namespaces given; pass them as arguments or use --events")
	}

	registry := palette.NewRegistry()
	seen := make(map[string]bool, len(namespaces))
	var rows []palette.Assignment
	for _, ns := range namespaces {
		if seen[ns] {
			continue
		}
		seen[ns] = true
		color := registry.Color(ns)
		if o.hash {
			color = palette.HashColor(ns)
		}
		rows = append(rows, palette.Assignment{Namespace: ns, Color: color})
	}

	out := cmd.OutOrStdout()
	return writePalette(out, rows, isTerminal(out))
}

func writePalette(out io.Writer, rows []palette.Assignment, swatch bool) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAMESPACE\tCOLOR")
	for _, a := range rows {
		color := string(a.Color)
		if swatch {
			color = lipgloss.NewStyle().Background(lipgloss.Color(color)).Render("  ") + " " + color
		}
		fmt.Fprintf(w, "%s\t%s\n", displayNamespace(a.Namespace), color)
	}
	return w.Flush()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func displayNamespace(ns string) string {
	if ns == "" {
		return "(cluster)"
	}
	return ns
}
