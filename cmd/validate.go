package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	docerrors "github.com/conneroisu/patterndoc/internal/errors"
	"github.com/conneroisu/patterndoc/internal/logging"
	"github.com/conneroisu/patterndoc/internal/model"
	"github.com/conneroisu/patterndoc/internal/registry"
	"github.com/conneroisu/patterndoc/internal/trigger"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check pattern definitions without generating documentation",
	Long: `Parse every pattern definition and report everything that would make
generation skip or lose content:

- malformed files and patterns without a name
- trigger groups referencing edges the pattern does not declare
- trigger groups too large to enumerate
- patterns sharing a name within one directory, which overwrite each
  other's page

The command exits with an error when anything is found.

Examples:
  patterndoc validate
  patterndoc validate -s defs -f json`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

var validateFormat string

func init() {
	rootCmd.AddCommand(validateCmd)

	addSourceFlags(validateCmd)
	addFormatFlag(validateCmd, &validateFormat, "text", []string{"text", "json"})
}

// Finding is one problem reported by validate.
type Finding struct {
	Kind     string `json:"kind"`
	Code     string `json:"code,omitempty"`
	Pattern  string `json:"pattern,omitempty"`
	Location string `json:"location,omitempty"`
	Message  string `json:"message"`
}

func (f Finding) String() string {
	var parts []string
	if f.Location != "" {
		parts = append(parts, f.Location+":")
	}
	parts = append(parts, f.Kind+":")
	if f.Pattern != "" {
		parts = append(parts, "["+f.Pattern+"]")
	}
	parts = append(parts, f.Message)
	return strings.Join(parts, " ")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, sourceBindings)
	if err != nil {
		return err
	}

	scan, err := scanPatterns(commandContext(cmd), cfg, logging.NewNopLogger())
	if err != nil {
		return err
	}

	var findings []Finding
	for _, e := range scan.Errors.Errors() {
		findings = append(findings, findingFromError(e))
	}

	for _, ref := range scan.Tree.Patterns() {
		p := ref.Pattern
		qualified := registry.QualifiedName(ref.Dir, p.Name)

		m, errs := model.Extract(p)
		for _, e := range errs {
			f := findingFromError(e)
			f.Pattern = qualified
			findings = append(findings, f)
		}
		for _, g := range m.TriggerGroups {
			if _, err := trigger.Enumerate(g.Inputs, g.Outputs); err != nil {
				findings = append(findings, Finding{
					Kind:     "validation",
					Pattern:  qualified,
					Location: location(p.File, p.Line),
					Message:  err.Error(),
				})
			}
		}
	}

	for _, dup := range scan.Registry.Duplicates() {
		findings = append(findings, Finding{
			Kind:     "duplicate",
			Code:     docerrors.ErrCodeDuplicate,
			Pattern:  dup.QualifiedName,
			Location: location(dup.Second.Pattern.File, dup.Second.Pattern.Line),
			Message: fmt.Sprintf("also defined at %s, only the later definition is documented",
				location(dup.First.Pattern.File, dup.First.Pattern.Line)),
		})
	}

	out := cmd.OutOrStdout()
	if validateFormat == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(map[string]interface{}{
			"patterns": scan.Registry.Count(),
			"findings": findings,
		}); err != nil {
			return err
		}
	} else {
		for _, f := range findings {
			fmt.Fprintln(out, f)
		}
		fmt.Fprintf(out, "%d pattern(s) checked, %d problem(s) found\n", scan.Tree.Count(), len(findings))
	}

	if len(findings) > 0 {
		return fmt.Errorf("validation failed with %d problem(s)", len(findings))
	}
	return nil
}

func findingFromError(err error) Finding {
	var de *docerrors.DocError
	if !errors.As(err, &de) {
		return Finding{Kind: "error", Message: err.Error()}
	}
	message := de.Message
	if de.Cause != nil {
		message += ": " + de.Cause.Error()
	}
	return Finding{
		Kind:     string(de.Type),
		Code:     de.Code,
		Pattern:  de.Pattern,
		Location: location(de.FilePath, de.Line),
		Message:  message,
	}
}

func location(file string, line int) string {
	if file == "" {
		return ""
	}
	if line > 0 {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return file
}
