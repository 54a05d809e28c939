package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/moolen/laneview/internal/hierarchy"
	"github.com/moolen/laneview/internal/importexport"
	"github.com/moolen/laneview/internal/models"
	"github.com/moolen/laneview/internal/palette"
	"github.com/spf13/cobra"
)

type lanesOptions struct {
	input      inputOptions
	window     windowOptions
	root       string
	namespace  string
	groupByApp bool
	output     string
}

func newLanesCmd(global *globalOptions) *cobra.Command {
	o := &lanesOptions{}

	cmd := &cobra.Command{
		Use:   "lanes",
		Short: "Group events into resource lanes per namespace",
		Long: `Build the lane forest for every namespace present in the event set.

Examples:
  laneview lanes --events ./events.json
  laneview lanes --events ./capture/ --topology topo.yaml --group-by-app
  laneview lanes --events ./events.jsonl --root Deployment/shop/web -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var groupByApp *bool
			if cmd.Flags().Changed("group-by-app") {
				groupByApp = &o.groupByApp
			}
			return o.run(cmd, global, groupByApp)
		},
	}

	o.input.bind(cmd)
	o.window.bind(cmd)
	cmd.Flags().StringVar(&o.root, "root", "", "Focus on the tree containing this resource (kind/namespace/name)")
	cmd.Flags().StringVarP(&o.namespace, "namespace", "n", "", "Only show this namespace")
	cmd.Flags().BoolVar(&o.groupByApp, "group-by-app", false, "Group unrelated lanes sharing an application label (overrides config)")
	cmd.Flags().StringVarP(&o.output, "output", "o", "table", "Output format: table or json")

	return cmd
}

func (o *lanesOptions) run(cmd *cobra.Command, global *globalOptions, groupByApp *bool) error {
	if o.output != "table" && o.output != "json" {
		return fmt.Errorf("unsupported output format %q (use table or json)", o.output)
	}

	var focus *models.ResourceKey
	if o.root != "" {
		key, err := models.ParseResourceKey(o.root)
		if err != nil {
			return fmt.Errorf("invalid --root: %w", err)
		}
		focus = &key
	}

	bundle, err := o.input.load(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	eng, err := global.newEngine(groupByApp)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	forests, err := eng.BuildNamespaces(ctx, bundle.Events, bundle.Topology)
	if err != nil {
		return err
	}

	if focus != nil {
		key := hierarchy.CanonicalKey(*focus)
		forests = map[string][]*models.ResourceLane{
			key.Namespace: hierarchy.Focus(forests[key.Namespace], key),
		}
	}
	if o.namespace != "" {
		forests = map[string][]*models.ResourceLane{o.namespace: forests[o.namespace]}
	}

	colors := palette.NewRegistry()
	namespaces := sortedKeys(forests)
	for _, ns := range namespaces {
		colors.Color(ns)
	}

	if o.output == "table" {
		return writeLaneTable(cmd.OutOrStdout(), namespaces, forests, colors)
	}

	window, err := o.window.window(time.Now())
	if err != nil {
		return err
	}

	doc := importexport.Document{
		GeneratedAt: time.Now().UTC(),
		WindowStart: window.Start,
		Now:         window.Now,
	}
	for _, ns := range namespaces {
		lanes := forests[ns]
		timelines, err := eng.Timelines(ctx, lanes, window)
		if err != nil {
			return err
		}

		nsDoc := importexport.NamespaceDoc{Namespace: ns, Color: string(colors.Color(ns))}
		for _, lane := range lanes {
			laneTimelines := map[string]models.HealthTimeline{lane.ID(): timelines[lane.ID()]}
			for _, child := range lane.Descendants() {
				laneTimelines[child.ID()] = timelines[child.ID()]
			}
			nsDoc.Lanes = append(nsDoc.Lanes, importexport.LaneDoc{Lane: lane, Timelines: laneTimelines})
		}
		doc.Namespaces = append(doc.Namespaces, nsDoc)
	}
	return importexport.WriteDocument(cmd.OutOrStdout(), &doc)
}

func writeLaneTable(out io.Writer, namespaces []string, forests map[string][]*models.ResourceLane, colors *palette.Registry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAMESPACE\tLANE\tEVENTS\tTOTAL\tLAST EVENT\tWORKLOAD")
	for _, ns := range namespaces {
		for _, lane := range forests[ns] {
			writeLaneRow(w, ns, lane, "")
			for _, child := range lane.Descendants() {
				writeLaneRow(w, ns, child, "  ")
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(namespaces) > 0 {
		var legend []string
		for _, a := range colors.Assignments() {
			legend = append(legend, fmt.Sprintf("%s=%s", a.Namespace, a.Color))
		}
		fmt.Fprintf(out, "\nColors: %s\n", strings.Join(legend, " "))
	}
	return nil
}

func writeLaneRow(w io.Writer, ns string, lane *models.ResourceLane, indent string) {
	workload := ""
	if lane.IsWorkload {
		workload = "yes"
	}
	fmt.Fprintf(w, "%s\t%s%s\t%d\t%d\t%s\t%s\n",
		ns, indent, lane.ID(), len(lane.Events), lane.EventCount(), formatTime(lane.LatestEventTime()), workload)
}
