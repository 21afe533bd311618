package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/unigraph/internal/config"
	"github.com/roach88/unigraph/internal/engine"
	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/predicate"
	"github.com/roach88/unigraph/internal/query"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Schema   string
	Database string
	IndexDir string
	Kind     string
	Has      []string
	Keys     []string
	Limit    int
}

// SearchResult is the JSON payload of search.
type SearchResult struct {
	Elements []any          `json:"elements"`
	Failed   []FailedSchema `json:"failed,omitempty"`
}

// FailedSchema is a sub-query that failed during the search.
type FailedSchema struct {
	Backend string `json:"backend"`
	Schema  string `json:"schema"`
	Error   string `json:"error"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a routed search over the configured backends",
		Long: `Search vertices or edges across every backend of a schema definition.

Each --has is key=value (equality) or key:op:value with op one of
eq, neq, lt, lte, gt, gte, startsWith, exists, missing, and
within, without, between taking comma-separated values. Several --has
flags are combined with AND. Values are parsed as int, float or bool
when possible. Special keys: ~id, ~label, ~out.id, ~in.id.

Examples:
  unigraph search --schema graph.cue --db graph.db --kind vertex --has name=marko
  unigraph search --schema graph.cue --db graph.db --index-dir ./idx --kind edge --has '~out.id=v1'
  unigraph search --schema graph.cue --db graph.db --kind vertex --has age:gt:30 --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "schema definition (.cue, .yaml) (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (empty: in-memory)")
	cmd.Flags().StringVar(&opts.IndexDir, "index-dir", "", "directory of bleve indexes (empty: in-memory)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "vertex", "element kind (vertex|edge)")
	cmd.Flags().StringArrayVar(&opts.Has, "has", nil, "predicate key=value or key:op:value (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Keys, "keys", nil, "property keys to fetch (default: all)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of elements (0: no limit)")
	_ = cmd.MarkFlagRequired("schema")

	return cmd
}

func runSearch(opts *SearchOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	kind, err := graph.ParseKind(opts.Kind)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --kind", err)
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --limit %d: must not be negative", opts.Limit))
	}
	filter, err := parseFilter(opts.Has)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --has", err)
	}

	cfg, err := config.LoadFile(opts.Schema)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	g, err := engine.Open(cmd.Context(), cfg, engine.OpenOptions{
		DBPath:   opts.Database,
		IndexDir: opts.IndexDir,
		Logger:   logger,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open graph", err)
	}
	defer func() {
		if closeErr := g.Close(); closeErr != nil {
			logger.Error("error closing graph", "error", closeErr)
		}
	}()

	formatter.VerboseLog("Searching %s matching %s", kind, filter)
	seq, reports := g.SearchWithReport(cmd.Context(), query.SearchQuery{
		Kind:         kind,
		Predicates:   filter,
		PropertyKeys: opts.Keys,
		Limit:        opts.Limit,
		Step:         "cli",
	})

	result := SearchResult{Elements: []any{}}
	var elements []graph.Element
	for e := range seq {
		elements = append(elements, e)
		result.Elements = append(result.Elements, ir.ToNative(graph.Snapshot(e)))
	}
	for _, r := range reports {
		for _, f := range r.Failed() {
			result.Failed = append(result.Failed, FailedSchema{
				Backend: r.Backend,
				Schema:  f.Schema,
				Error:   f.Err.Error(),
			})
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	outputSearchText(formatter, elements, result.Failed)
	return nil
}

func outputSearchText(formatter *OutputFormatter, elements []graph.Element, failed []FailedSchema) {
	w := formatter.Writer
	for _, e := range elements {
		line := fmt.Sprintf("%s %s", headerStyle.Render(e.Label()), e.ID())
		if edge, ok := e.(*graph.Edge); ok {
			line += subtleStyle.Render(fmt.Sprintf(" (%s -> %s)", edge.OutVertex().ID(), edge.InVertex().ID()))
		}
		fmt.Fprintln(w, line)

		props := e.Properties()
		for _, key := range props.Keys() {
			fmt.Fprintf(w, "  %s: %s\n", key, ir.Format(ir.IRArray(props[key])))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, subtleStyle.Render(fmt.Sprintf("%d element(s)", len(elements))))
	for _, f := range failed {
		fmt.Fprintf(w, "%s %s/%s: %s\n", failMark(), f.Backend, f.Schema, f.Error)
	}
}

// parseFilter combines --has clauses with AND.
func parseFilter(clauses []string) (*predicate.Holder, error) {
	leaves := make([]*predicate.Holder, 0, len(clauses))
	for _, clause := range clauses {
		has, err := parseHas(clause)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, predicate.Leaf(has))
	}
	return predicate.And(leaves...), nil
}

// parseHas parses key=value or key:op[:value]. Identity keys keep their
// values as strings.
func parseHas(clause string) (predicate.Has, error) {
	if key, value, ok := strings.Cut(clause, "="); ok && key != "" && !strings.Contains(key, ":") {
		return predicate.Has{Key: key, Op: predicate.OpEq, Value: parseValue(key, value)}, nil
	}

	parts := strings.SplitN(clause, ":", 3)
	if len(parts) < 2 || parts[0] == "" {
		return predicate.Has{}, fmt.Errorf("%q: want key=value or key:op:value", clause)
	}
	op, err := predicate.ParseOp(parts[1])
	if err != nil {
		return predicate.Has{}, fmt.Errorf("%q: %w", clause, err)
	}

	has := predicate.Has{Key: parts[0], Op: op}
	switch op {
	case predicate.OpExists, predicate.OpMissing:
	case predicate.OpWithin, predicate.OpWithout, predicate.OpBetween:
		if len(parts) != 3 {
			return predicate.Has{}, fmt.Errorf("%q: operator %s needs values", clause, op)
		}
		for _, v := range strings.Split(parts[2], ",") {
			has.Values = append(has.Values, parseValue(has.Key, v))
		}
	case predicate.OpStartsWith:
		if len(parts) != 3 {
			return predicate.Has{}, fmt.Errorf("%q: operator %s needs a value", clause, op)
		}
		has.Value = ir.IRString(parts[2])
	default:
		if len(parts) != 3 {
			return predicate.Has{}, fmt.Errorf("%q: operator %s needs a value", clause, op)
		}
		has.Value = parseValue(has.Key, parts[2])
	}
	if err := predicate.Validate(predicate.Leaf(has)); err != nil {
		return predicate.Has{}, fmt.Errorf("%q: %w", clause, err)
	}
	return has, nil
}

func parseValue(key, s string) ir.IRValue {
	if strings.HasPrefix(key, "~") {
		return ir.IRString(s)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ir.IRInt(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return ir.IRFloat(f)
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return ir.IRBool(b)
	}
	return ir.IRString(s)
}
