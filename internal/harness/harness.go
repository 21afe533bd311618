package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/unigraph/internal/config"
	"github.com/roach88/unigraph/internal/engine"
	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/predicate"
	"github.com/roach88/unigraph/internal/query"
	"github.com/roach88/unigraph/internal/store"
	"github.com/roach88/unigraph/internal/testutil"
)

// Harness runs the steps of one scenario against a graph.
type Harness struct {
	graph   *engine.Graph
	aliases map[string]graph.Element
	seq     int64
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against fresh in-memory backends. Setup failures and
// malformed steps (unknown aliases, bad operators) are returned as errors;
// unmet expectations are recorded in the result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	cfg, err := config.LoadFile(scenario.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	ids := testutil.NewSequenceGenerator(scenario.IDPrefix)
	g, err := engine.Open(ctx, cfg, engine.OpenOptions{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		IDs:    ids,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open graph: %w", err)
	}
	defer g.Close()

	h := &Harness{
		graph:   g,
		aliases: make(map[string]graph.Element),
	}

	for i, step := range scenario.Setup {
		event, err := h.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
		if event.Error != "" {
			return nil, fmt.Errorf("setup[%d]: %s failed: %s", i, step.Op, event.Error)
		}
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		h.seq++
		event, err := h.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("flow[%d]: %w", i, err)
		}
		event.Seq = h.seq
		result.Trace = append(result.Trace, event)

		for _, msg := range h.check(step.Expect, event) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}
	}

	for _, msg := range h.evaluate(ctx, scenario.Assertions, result) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, step Step) (TraceEvent, error) {
	event := TraceEvent{Op: step.Op, Args: ir.IRObject{}}

	switch step.Op {
	case OpAddVertex:
		props, err := properties(step.Properties)
		if err != nil {
			return event, err
		}
		event.Args["label"] = ir.IRString(step.Label)
		setProperties(event.Args, step.Properties)

		e, err := h.graph.AddVertex(ctx, query.AddVertexQuery{Label: step.Label, Properties: props})
		h.written(&event, step.As, e, err)

	case OpAddEdge:
		props, err := properties(step.Properties)
		if err != nil {
			return event, err
		}
		out, in := h.ref(*step.Out), h.ref(*step.In)
		event.Args["label"] = ir.IRString(step.Label)
		event.Args["out"] = ir.IRString(out.ID)
		event.Args["in"] = ir.IRString(in.ID)
		setProperties(event.Args, step.Properties)

		e, err := h.graph.AddEdge(ctx, query.AddEdgeQuery{Label: step.Label, Properties: props, Out: out, In: in})
		h.written(&event, step.As, e, err)

	case OpSearch:
		kind, err := graph.ParseKind(step.Kind)
		if err != nil {
			return event, err
		}
		filter, err := h.filter(step.Has, step.Or)
		if err != nil {
			return event, err
		}
		event.Args["kind"] = ir.IRString(step.Kind)
		setFilter(event.Args, filter)
		if len(step.Keys) > 0 {
			event.Args["keys"] = stringArray(step.Keys)
		}
		if step.Limit > 0 {
			event.Args["limit"] = ir.IRInt(step.Limit)
		}

		seq, reports := h.graph.SearchWithReport(ctx, query.SearchQuery{
			Kind:         kind,
			Predicates:   filter,
			PropertyKeys: step.Keys,
			Limit:        step.Limit,
			Step:         "harness",
		})
		h.read(&event, step.As, slices.Collect(seq), reports)

	case OpSearchVertex:
		dir, err := graph.ParseDirection(step.Direction)
		if err != nil {
			return event, err
		}
		filter, err := h.filter(step.Has, step.Or)
		if err != nil {
			return event, err
		}
		refs := h.refs(step.Vertices)
		event.Args["vertices"] = refIDs(refs)
		event.Args["direction"] = ir.IRString(dir.String())
		setFilter(event.Args, filter)
		if step.Limit > 0 {
			event.Args["limit"] = ir.IRInt(step.Limit)
		}

		seq, reports := h.graph.SearchVertexWithReport(ctx, query.SearchVertexQuery{
			Vertices:   refs,
			Direction:  dir,
			Predicates: filter,
			Limit:      step.Limit,
			Step:       "harness",
		})
		h.read(&event, step.As, slices.Collect(seq), reports)

	case OpFetch:
		filter, err := h.filter(step.Has, step.Or)
		if err != nil {
			return event, err
		}
		refs := h.refs(step.Vertices)
		stubs := make([]*graph.DeferredVertex, len(refs))
		for i, ref := range refs {
			stubs[i] = graph.NewDeferredVertex(ref.ID, ref.Label)
		}
		event.Args["vertices"] = refIDs(refs)
		setFilter(event.Args, filter)

		n := h.graph.FetchProperties(ctx, query.DeferredVertexQuery{Vertices: stubs, Predicates: filter, Step: "harness"})
		event.Count = &n
		event.Elements = []graph.Element{}
		for _, d := range stubs {
			if d.Resolved() {
				event.Elements = append(event.Elements, d)
			}
		}

	case OpProperty:
		e, err := h.element(step.Element)
		if err != nil {
			return event, err
		}
		props, err := properties(step.Properties)
		if err != nil {
			return event, err
		}
		event.Args["element"] = ir.IRString(e.ID())
		setProperties(event.Args, step.Properties)

		updated, err := h.graph.Property(ctx, query.PropertyQuery{Element: e, Properties: props})
		alias := step.As
		if alias == "" {
			alias = step.Element
		}
		h.written(&event, alias, updated, err)

	case OpRemove:
		elements := make([]graph.Element, len(step.Elements))
		ids := make([]string, len(step.Elements))
		for i, alias := range step.Elements {
			e, err := h.element(alias)
			if err != nil {
				return event, err
			}
			elements[i] = e
			ids[i] = e.ID()
		}
		event.Args["elements"] = stringArray(ids)

		n, err := h.graph.Remove(ctx, query.RemoveQuery{Elements: elements})
		event.Count = &n
		if err != nil {
			event.Error = errorCode(err)
		}

	case OpSQL:
		event.Args["statement"] = ir.IRString(step.Statement)
		s, ok := h.sqlStore()
		if !ok {
			return event, errors.New("no sql backend configured")
		}
		if err := s.Exec(ctx, step.Statement); err != nil {
			event.Error = errorCode(err)
		}

	default:
		return event, fmt.Errorf("unknown op %q", step.Op)
	}
	return event, nil
}

// written records the outcome of a write and binds the alias.
func (h *Harness) written(event *TraceEvent, alias string, e graph.Element, err error) {
	if err != nil {
		event.Error = errorCode(err)
		return
	}
	event.Elements = []graph.Element{e}
	if alias != "" {
		h.aliases[alias] = e
	}
}

// read records a search outcome and binds the alias to the first element.
func (h *Harness) read(event *TraceEvent, alias string, elements []graph.Element, reports []*query.Report) {
	event.Elements = elements
	if event.Elements == nil {
		event.Elements = []graph.Element{}
	}
	for _, r := range reports {
		for _, f := range r.Failed() {
			event.Failed = append(event.Failed, f.Schema)
		}
	}
	if alias != "" && len(elements) > 0 {
		h.aliases[alias] = elements[0]
	}
}

func (h *Harness) sqlStore() (*store.Store, bool) {
	for _, c := range h.graph.Controllers() {
		if s, ok := c.Backend().(*store.Store); ok {
			return s, true
		}
	}
	return nil, false
}

// ref resolves an alias or passes an identity through. An explicit label
// wins over the aliased element's label.
func (h *Harness) ref(ep Endpoint) graph.VertexRef {
	ref := graph.VertexRef{ID: ep.Ref}
	if e, ok := h.aliases[ep.Ref]; ok {
		ref = graph.VertexRef{ID: e.ID(), Label: e.Label()}
	}
	if ep.Label != "" {
		ref.Label = ep.Label
	}
	return ref
}

func (h *Harness) refs(eps []Endpoint) []graph.VertexRef {
	out := make([]graph.VertexRef, len(eps))
	for i, ep := range eps {
		out[i] = h.ref(ep)
	}
	return out
}

func (h *Harness) element(alias string) (graph.Element, error) {
	e, ok := h.aliases[alias]
	if !ok {
		return nil, fmt.Errorf("unknown element alias %q", alias)
	}
	return e, nil
}

// resolveID maps an alias to its identity.
func (h *Harness) resolveID(s string) string {
	if e, ok := h.aliases[s]; ok {
		return e.ID()
	}
	return s
}

// filter builds AND(has...) AND OR(or...). Identity comparisons accept
// aliases.
func (h *Harness) filter(has, or []HasClause) (*predicate.Holder, error) {
	all := make([]*predicate.Holder, 0, len(has)+1)
	for _, c := range has {
		leaf, err := h.leaf(c)
		if err != nil {
			return nil, err
		}
		all = append(all, leaf)
	}

	if len(or) > 0 {
		anyOf := make([]*predicate.Holder, 0, len(or))
		for _, c := range or {
			leaf, err := h.leaf(c)
			if err != nil {
				return nil, err
			}
			anyOf = append(anyOf, leaf)
		}
		all = append(all, predicate.Or(anyOf...))
	}
	return predicate.And(all...), nil
}

func (h *Harness) leaf(c HasClause) (*predicate.Holder, error) {
	op, err := predicate.ParseOp(c.Op)
	if err != nil {
		return nil, fmt.Errorf("has %s: %w", c.Key, err)
	}

	identity := c.Key == predicate.KeyID || c.Key == predicate.KeyOutID || c.Key == predicate.KeyInID
	convert := func(v any) (ir.IRValue, error) {
		if s, ok := v.(string); ok && identity {
			v = h.resolveID(s)
		}
		return ir.FromNative(v)
	}

	has := predicate.Has{Key: c.Key, Op: op}
	if c.Value != nil {
		if has.Value, err = convert(c.Value); err != nil {
			return nil, fmt.Errorf("has %s: %w", c.Key, err)
		}
	}
	for _, v := range c.Values {
		irv, err := convert(v)
		if err != nil {
			return nil, fmt.Errorf("has %s: %w", c.Key, err)
		}
		has.Values = append(has.Values, irv)
	}
	return predicate.Leaf(has), nil
}

// properties converts scenario values; a list becomes a multi-valued
// property.
func properties(in map[string]any) (graph.Properties, error) {
	out := make(graph.Properties, len(in))
	for key, v := range in {
		list, ok := v.([]any)
		if !ok {
			list = []any{v}
		}
		for _, item := range list {
			irv, err := ir.FromNative(item)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", key, err)
			}
			out[key] = append(out[key], irv)
		}
	}
	return out, nil
}

func setProperties(args ir.IRObject, props map[string]any) {
	if len(props) == 0 {
		return
	}
	if v, err := ir.FromNative(props); err == nil {
		args["properties"] = v
	}
}

func setFilter(args ir.IRObject, filter *predicate.Holder) {
	if filter != nil && !filter.IsEmpty() {
		args["filter"] = ir.IRString(filter.String())
	}
}

func refIDs(refs []graph.VertexRef) ir.IRArray {
	out := make(ir.IRArray, len(refs))
	for i, ref := range refs {
		out[i] = ir.IRString(ref.ID)
	}
	return out
}

// errorCode returns the element error code, or the message of any other
// error.
func errorCode(err error) string {
	var ee *graph.ElementError
	if errors.As(err, &ee) {
		return string(ee.Code)
	}
	return err.Error()
}
