package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/conneroisu/patterndoc/internal/config"
	"github.com/conneroisu/patterndoc/internal/logging"
	"github.com/conneroisu/patterndoc/internal/model"
	"github.com/conneroisu/patterndoc/internal/registry"
	"github.com/conneroisu/patterndoc/internal/renderer"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <pattern>",
	Short: "Show the trigger tables or the graph of one pattern",
	Long: `Show the push/pull configurations of one pattern as text, or print the
Graphviz description of its diagram.

The pattern is named by its bare name or by its path relative to the source
directory (sensors/Camera) when the bare name is ambiguous.

Examples:
  patterndoc show MarkerTracker
  patterndoc show sensors/Camera --dot | dot -Tsvg > camera.svg`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var showDot bool

func init() {
	rootCmd.AddCommand(showCmd)

	addSourceFlags(showCmd)
	showCmd.Flags().BoolVar(&showDot, "dot", false, "Print the Graphviz graph instead of the trigger tables")
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, sourceBindings)
	if err != nil {
		return err
	}

	scan, err := scanPatterns(commandContext(cmd), cfg, logging.NewNopLogger())
	if err != nil {
		return err
	}

	info, err := findPattern(scan.Registry, args[0])
	if err != nil {
		return err
	}

	m, errs := model.Extract(info.Pattern)
	for _, e := range errs {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", e)
	}

	out := cmd.OutOrStdout()
	if showDot {
		return printGraph(out, cfg, m)
	}
	return printTriggerTables(out, info, m)
}

// findPattern resolves a pattern argument through the registry.
func findPattern(reg *registry.PatternRegistry, name string) (registry.PatternInfo, error) {
	matches := reg.Find(name)
	switch len(matches) {
	case 0:
		return registry.PatternInfo{}, fmt.Errorf("pattern %q not found", name)
	case 1:
		return matches[0], nil
	}

	for _, match := range matches {
		if match.QualifiedName() == name {
			return match, nil
		}
	}
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, match.QualifiedName())
	}
	return registry.PatternInfo{}, fmt.Errorf("pattern %q is ambiguous, use one of: %s", name, strings.Join(names, ", "))
}

func printGraph(w io.Writer, cfg *config.Config, m *model.PatternModel) error {
	graph := renderer.BuildGraph(m)
	graph.DPI = cfg.Graphviz.DPI
	_, err := io.WriteString(w, graph.DOT())
	return err
}

func printTriggerTables(w io.Writer, info registry.PatternInfo, m *model.PatternModel) error {
	fmt.Fprintf(w, "%s (%s:%d)\n", model.Pretty(*info.Pattern, model.DisplayFirst), info.Pattern.File, info.Pattern.Line)

	if len(m.TriggerGroups) == 0 {
		fmt.Fprintln(w, "No trigger groups.")
		return nil
	}

	for i, g := range m.TriggerGroups {
		title := fmt.Sprintf("Trigger group %d", i+1)
		if g.Name != "" {
			title += " (" + g.Name + ")"
		}
		fmt.Fprintf(w, "\n%s\n", title)

		table, err := renderer.TriggerTable(g)
		if err != nil {
			fmt.Fprintf(w, "  %v\n", err)
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  "+strings.Join(table.Header, "\t"))
		for _, row := range table.Rows {
			cells := make([]string, 0, len(row))
			for _, cell := range row {
				cells = append(cells, cell.Text)
			}
			fmt.Fprintln(tw, "  "+strings.Join(cells, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
