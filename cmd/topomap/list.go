package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"topomap/core-go/internal/listview"
	"topomap/core-go/internal/topology"
)

var (
	headerColor = color.New(color.Bold)
	subtleColor = color.New(color.FgHiBlack)
)

type listFlags struct {
	file     string
	filter   string
	page     int
	pageSize int
}

func (l *listFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&l.file, "file", "", "list from a JSON or YAML topology file instead of the configured source")
	f.StringVar(&l.filter, "filter", "", "case-insensitive substring filter")
	f.IntVar(&l.page, "page", 1, "page number, starting at 1")
	f.IntVar(&l.pageSize, "page-size", 0, "rows per page (default lists.page_size)")
}

var (
	nodeFlags listFlags
	linkFlags listFlags
)

var nodesCmd = &cobra.Command{
	Use:   "nodes [topology]",
	Short: "List the nodes of a topology",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if nodeFlags.pageSize > 0 {
			cfg.Lists.PageSize = nodeFlags.pageSize
		}
		v, cleanup, err := loadViewer(cmd.Context(), cfg, consoleLogger(cfg), args, nodeFlags.file)
		defer cleanup()
		if err != nil {
			return err
		}

		v.ApplyNodeFilter(nodeFlags.filter)
		v.NodesPage(nodeFlags.page - 1)
		printNodes(os.Stdout, v.Nodes(), v.Lists().NodesLabel)
		return nil
	},
}

var linksCmd = &cobra.Command{
	Use:   "links [topology]",
	Short: "List the links of a topology",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if linkFlags.pageSize > 0 {
			cfg.Lists.PageSize = linkFlags.pageSize
		}
		v, cleanup, err := loadViewer(cmd.Context(), cfg, consoleLogger(cfg), args, linkFlags.file)
		defer cleanup()
		if err != nil {
			return err
		}

		v.ApplyLinkFilter(linkFlags.filter)
		v.LinksPage(linkFlags.page - 1)
		printLinks(os.Stdout, v.Links(), v.Lists().LinksLabel)
		return nil
	},
}

func init() {
	nodeFlags.register(nodesCmd)
	linkFlags.register(linksCmd)
	rootCmd.AddCommand(nodesCmd, linksCmd)
}

func printNodes(w io.Writer, page listview.Page[listview.NodeRow], label string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headerColor.Fprintln(tw, "ID\tNAME\tLOCATION\tCOORDINATES")
	for _, r := range page.Items {
		coords := r.Coordinates
		if !r.Positioned {
			coords = subtleColor.Sprint(coords)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.DisplayName, orDash(r.Location), coords)
	}
	_ = tw.Flush()
	printFooter(w, page.State, page.TotalPages, label)
}

func printLinks(w io.Writer, page listview.Page[listview.LinkRow], label string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headerColor.Fprintln(tw, "ID\tA SIDE\tDIR\tZ SIDE\tSTATUS")
	for _, r := range page.Items {
		status := statusColor(topology.Status(r.Status)).Sprint(r.StatusText)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.ASideLabel, r.Symbol, r.ZSideLabel, status)
	}
	_ = tw.Flush()
	printFooter(w, page.State, page.TotalPages, label)
}

func printFooter(w io.Writer, st listview.State, pages int, label string) {
	subtleColor.Fprintf(w, "page %d/%d, %s\n", st.PageIndex+1, pages, label)
}

func statusColor(s topology.Status) *color.Color {
	switch s {
	case topology.StatusUp:
		return color.New(color.FgGreen)
	case topology.StatusDown:
		return color.New(color.FgRed)
	case topology.StatusPartial:
		return color.New(color.FgYellow)
	default:
		return subtleColor
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
