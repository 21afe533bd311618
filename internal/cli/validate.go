package cli

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/unigraph/internal/config"
)

// Error codes reported by validate.
const (
	ErrCodeConfigRead    = "E_CONFIG_READ"
	ErrCodeConfigInvalid = "E_CONFIG_INVALID"
)

// ValidationResult is the JSON payload of validate.
type ValidationResult struct {
	Valid    bool             `json:"valid"`
	Backends []BackendSummary `json:"backends,omitempty"`
	Errors   []string         `json:"errors,omitempty"`
	Line     int              `json:"line,omitempty"`
}

// BackendSummary lists the schemas bound to one backend.
type BackendSummary struct {
	Backend string          `json:"backend"`
	Schemas []SchemaSummary `json:"schemas"`
}

// SchemaSummary describes one resolved schema.
type SchemaSummary struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Location   string   `json:"location"`
	Label      string   `json:"label,omitempty"`
	Identity   string   `json:"identity"`
	Priority   int      `json:"priority"`
	Properties []string `json:"properties,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema>",
		Short: "Validate a schema definition and print the resolved schemas",
		Long: `Validate a CUE or YAML schema definition.

Checks the definition against the graph schema, builds every element
schema and prints them grouped by backend, in write-routing order.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := config.LoadFile(path)
	if err != nil {
		var loadErr *config.LoadError
		var pathErr *fs.PathError
		switch {
		case errors.As(err, &loadErr):
			return outputValidationError(formatter, loadErr.Message, lineOf(loadErr))
		case errors.As(err, &pathErr):
			_ = formatter.Error(ErrCodeConfigRead, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load config", err)
		default:
			return outputValidationError(formatter, err.Error(), 0)
		}
	}
	formatter.VerboseLog("Loaded %d schema(s) from %s", len(cfg.Schemas), path)

	sets, err := cfg.Sets()
	if err != nil {
		return outputValidationError(formatter, err.Error(), 0)
	}

	result := ValidationResult{Valid: true}
	for _, set := range sets {
		result.Backends = append(result.Backends, summarizeBackend(cfg, set.Backend))
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	outputValidationText(formatter, result)
	return nil
}

func lineOf(err *config.LoadError) int {
	if err.Pos.IsValid() {
		return err.Pos.Line()
	}
	return 0
}

// summarizeBackend lists the backend's schemas in write-routing order:
// by priority, ties in declaration order.
func summarizeBackend(cfg *config.Graph, backend string) BackendSummary {
	var schemas []config.Schema
	for _, s := range cfg.Schemas {
		if s.Backend == backend {
			schemas = append(schemas, s)
		}
	}
	slices.SortStableFunc(schemas, func(a, b config.Schema) int {
		return cmp.Compare(a.Priority, b.Priority)
	})

	summary := BackendSummary{Backend: backend}
	for _, s := range schemas {
		identity := "field " + s.IDField
		if s.IDField == "" {
			identity = "derived"
		}
		label := s.Label
		if label == "" && s.LabelField != "" {
			label = "field " + s.LabelField
		}
		summary.Schemas = append(summary.Schemas, SchemaSummary{
			Name:       s.Name,
			Kind:       s.Kind,
			Location:   s.Location,
			Label:      label,
			Identity:   identity,
			Priority:   s.Priority,
			Properties: slices.Sorted(maps.Keys(s.Properties)),
		})
	}
	return summary
}

func outputValidationText(formatter *OutputFormatter, result ValidationResult) {
	w := formatter.Writer
	fmt.Fprintf(w, "%s Schema definition valid\n", okMark())
	for _, b := range result.Backends {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render(b.Backend))
		for _, s := range b.Schemas {
			label := s.Label
			if label == "" {
				label = "*"
			}
			fmt.Fprintf(w, "  %-12s %-6s %-12s label=%s identity=%s %s\n",
				s.Name, s.Kind, s.Location, label, s.Identity,
				subtleStyle.Render(fmt.Sprintf("priority=%d", s.Priority)))
		}
	}
}

// outputValidationError reports an invalid definition. Validation
// failures exit with ExitFailure.
func outputValidationError(formatter *OutputFormatter, message string, line int) error {
	if formatter.Format == "json" {
		result := ValidationResult{Valid: false, Errors: []string{message}, Line: line}
		if err := formatter.encodeError(ErrCodeConfigInvalid, message, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "validation failed")
	}

	fmt.Fprintf(formatter.Writer, "%s Validation failed\n\n", failMark())
	if line > 0 {
		fmt.Fprintf(formatter.Writer, "line %d\n", line)
	}
	fmt.Fprintf(formatter.Writer, "  %s: %s\n", ErrCodeConfigInvalid, message)
	return NewExitError(ExitFailure, "validation failed")
}
