package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/moolen/laneview/internal/hierarchy"
	"github.com/moolen/laneview/internal/models"
	"github.com/spf13/cobra"
)

type healthOptions struct {
	input       inputOptions
	window      windowOptions
	resource    string
	descendants bool
	output      string
}

// laneHealth is the json output of the health command
type laneHealth struct {
	Lane     string                `json:"lane"`
	Timeline models.HealthTimeline `json:"timeline"`
}

func newHealthCmd(global *globalOptions) *cobra.Command {
	o := &healthOptions{}

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Reconstruct the health timeline of one resource",
		Long: `Reconstruct the health spans of a resource over a time window.

Examples:
  laneview health --events ./events.json --resource Deployment/shop/web
  laneview health --events ./capture/ --resource Pod/shop/web-1 --since "now-6h"
  laneview health --events ./events.json --resource Deployment/shop/web --descendants -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, global)
		},
	}

	o.input.bind(cmd)
	o.window.bind(cmd)
	cmd.Flags().StringVar(&o.resource, "resource", "", "Resource to inspect (kind/namespace/name)")
	cmd.Flags().BoolVar(&o.descendants, "descendants", false, "Also show the timelines of descendant lanes")
	cmd.Flags().StringVarP(&o.output, "output", "o", "table", "Output format: table or json")
	_ = cmd.MarkFlagRequired("resource")

	return cmd
}

func (o *healthOptions) run(cmd *cobra.Command, global *globalOptions) error {
	if o.output != "table" && o.output != "json" {
		return fmt.Errorf("unsupported output format %q (use table or json)", o.output)
	}

	key, err := models.ParseResourceKey(o.resource)
	if err != nil {
		return fmt.Errorf("invalid --resource: %w", err)
	}
	key = hierarchy.CanonicalKey(key)

	window, err := o.window.window(time.Now())
	if err != nil {
		return err
	}

	bundle, err := o.input.load(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	eng, err := global.newEngine(nil)
	if err != nil {
		return err
	}

	forests, err := eng.BuildNamespaces(cmd.Context(), bundle.Events, bundle.Topology)
	if err != nil {
		return err
	}

	lane := findLane(forests, key)
	if lane == nil {
		return fmt.Errorf("resource %s has no events", key)
	}

	lanes := []*models.ResourceLane{lane}
	if o.descendants {
		lanes = append(lanes, lane.Descendants()...)
	}

	results := make([]laneHealth, 0, len(lanes))
	for _, l := range lanes {
		results = append(results, laneHealth{Lane: l.ID(), Timeline: eng.Timeline(l, window)})
	}

	if o.output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	return writeHealthTable(cmd.OutOrStdout(), results)
}

func writeHealthTable(out io.Writer, results []laneHealth) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		created := "-"
		if r.Timeline.CreatedAt != nil {
			created = formatTime(*r.Timeline.CreatedAt)
		}
		fmt.Fprintf(w, "%s\t(created %s)\n", r.Lane, created)
		if len(r.Timeline.Spans) == 0 {
			fmt.Fprintln(w, "  no health spans in window")
			continue
		}
		fmt.Fprintln(w, "START\tEND\tDURATION\tLABEL")
		for _, s := range r.Timeline.Spans {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", formatTime(s.Start), formatTime(s.End), s.Duration().Round(time.Second), s.Label)
		}
	}
	return w.Flush()
}
