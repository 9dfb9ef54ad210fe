package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/conneroisu/patterndoc/internal/logging"
	"github.com/conneroisu/patterndoc/internal/model"
	"github.com/conneroisu/patterndoc/internal/registry"
	"github.com/conneroisu/patterndoc/internal/trigger"
	"github.com/conneroisu/patterndoc/internal/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List all discovered patterns",
	Long: `List the patterns found below the source directory, in the order they
appear in the generated index.

Examples:
  patterndoc list                    # Table of patterns
  patterndoc list -f tree            # Directory tree
  patterndoc list -f json            # JSON for tooling
  patterndoc list --with-groups      # Include trigger group table sizes`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listFormat     string
	listWithGroups bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	addSourceFlags(listCmd)
	addFormatFlag(listCmd, &listFormat, "table", []string{"table", "json", "yaml", "tree"})
	listCmd.Flags().BoolVarP(&listWithGroups, "with-groups", "g", false, "Include trigger groups and the size of their tables")
}

// PatternSummary describes one discovered pattern.
type PatternSummary struct {
	Name          string         `json:"name" yaml:"name"`
	Dir           string         `json:"dir,omitempty" yaml:"dir,omitempty"`
	DisplayName   string         `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	File          string         `json:"file" yaml:"file"`
	Line          int            `json:"line" yaml:"line"`
	Nodes         int            `json:"nodes" yaml:"nodes"`
	Edges         int            `json:"edges" yaml:"edges"`
	TriggerGroups []GroupSummary `json:"trigger_groups,omitempty" yaml:"trigger_groups,omitempty"`
}

// GroupSummary describes one trigger group of a pattern.
type GroupSummary struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Inputs  []string `json:"inputs" yaml:"inputs"`
	Outputs []string `json:"outputs" yaml:"outputs"`
	Rows    int      `json:"rows" yaml:"rows"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, sourceBindings)
	if err != nil {
		return err
	}

	// stdout may be machine readable, keep logs quiet unless asked for
	logger := logging.Logger(logging.NewNopLogger())
	if cfg.Log.Level == "debug" {
		logger = newLogger(cfg)
	}

	scan, err := scanPatterns(commandContext(cmd), cfg, logger)
	if err != nil {
		return err
	}
	if scan.Errors.HasErrors() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %d problem(s) while scanning, run 'patterndoc validate' for details\n", scan.Errors.Count())
	}

	summaries := summarize(scan.Tree, listWithGroups)
	out := cmd.OutOrStdout()

	switch strings.ToLower(listFormat) {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summaries)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(summaries)
	case "tree":
		return outputListTree(out, scan.Tree)
	default:
		if len(summaries) == 0 {
			fmt.Fprintln(out, "No patterns found.")
			return nil
		}
		return outputListTable(out, summaries, listWithGroups)
	}
}

func summarize(root types.Entry, withGroups bool) []PatternSummary {
	refs := root.Patterns()
	summaries := make([]PatternSummary, 0, len(refs))
	for _, ref := range refs {
		p := ref.Pattern
		m, _ := model.Extract(p)
		summary := PatternSummary{
			Name:        registry.QualifiedName(ref.Dir, p.Name),
			Dir:         ref.Dir,
			DisplayName: p.DisplayName,
			File:        p.File,
			Line:        p.Line,
			Nodes:       m.Nodes.Len(),
			Edges:       m.Edges.Len(),
		}
		if withGroups {
			summary.TriggerGroups = groupSummaries(m)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func groupSummaries(m *model.PatternModel) []GroupSummary {
	groups := make([]GroupSummary, 0, len(m.TriggerGroups))
	for _, g := range m.TriggerGroups {
		summary := GroupSummary{Name: g.Name, Inputs: g.Inputs, Outputs: g.Outputs}
		table, err := trigger.Enumerate(g.Inputs, g.Outputs)
		if err != nil {
			summary.Error = err.Error()
		} else {
			summary.Rows = len(table.Rows)
		}
		groups = append(groups, summary)
	}
	return groups
}

func outputListTable(w io.Writer, summaries []PatternSummary, withGroups bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "NAME\tDISPLAY NAME\tNODES\tEDGES"
	if withGroups {
		header += "\tTRIGGER GROUPS"
	}
	fmt.Fprintln(tw, header+"\tFILE")

	for _, s := range summaries {
		row := []string{s.Name, s.DisplayName, strconv.Itoa(s.Nodes), strconv.Itoa(s.Edges)}
		if withGroups {
			row = append(row, formatGroups(s.TriggerGroups))
		}
		row = append(row, fmt.Sprintf("%s:%d", s.File, s.Line))
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// formatGroups renders groups as "in1,in2>out1 (rows)" separated by "; ".
func formatGroups(groups []GroupSummary) string {
	if len(groups) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		edges := strings.Join(g.Inputs, ",") + ">" + strings.Join(g.Outputs, ",")
		if g.Error != "" {
			parts = append(parts, edges+" (too large)")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%d)", edges, g.Rows))
	}
	return strings.Join(parts, "; ")
}

func outputListTree(w io.Writer, root types.Entry) error {
	fmt.Fprintln(w, root.Name+"/")
	return root.Walk(func(dir string, e types.Entry) error {
		depth := 1
		if dir != "" {
			depth += strings.Count(dir, "/") + 1
		}
		indent := strings.Repeat("  ", depth)
		if e.IsDirectory() {
			_, err := fmt.Fprintln(w, indent+e.Name+"/")
			return err
		}
		_, err := fmt.Fprintln(w, indent+model.Pretty(*e.Pattern, model.DisplayFirst))
		return err
	})
}
