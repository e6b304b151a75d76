package remote

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/ext"

	"github.com/zero-day-ai/rlmemory/memory"
)

// TransformFunc derives one attribute from a retrieved record.
// ok is false when nothing should be added.
type TransformFunc func(attrs memory.Record) (attr string, value any, ok bool)

// Augment adds a derived attribute to retrieved records that carry every
// attribute listed in Requires.
type Augment struct {
	Requires  []string
	Transform TransformFunc
}

// Apply runs the transform on rec when its prerequisites are present and
// stores the derived attribute in rec.
func (a Augment) Apply(rec memory.Record) {
	if a.Transform == nil {
		return
	}
	for _, attr := range a.Requires {
		if !rec.Has(attr) {
			return
		}
	}
	if attr, value, ok := a.Transform(rec); ok {
		rec[attr] = value
	}
}

// NewCELAugment compiles expr into an Augment that stores its result under
// attr. The expression sees the retrieved record as the map variable attrs
// and may use the CEL strings extension:
//
//	aug, err := remote.NewCELAugment(
//		"<http://example.org/year>",
//		`attrs["<http://dbpedia.org/ontology/releaseDate>"].substring(1, 5)`,
//		"<http://dbpedia.org/ontology/releaseDate>",
//	)
//
// An expression that evaluates to null or fails at runtime adds nothing.
func NewCELAugment(attr, expr string, requires ...string) (Augment, error) {
	env, err := cel.NewEnv(
		cel.Variable("attrs", cel.MapType(cel.StringType, cel.DynType)),
		ext.Strings(),
	)
	if err != nil {
		return Augment{}, fmt.Errorf("create CEL environment: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return Augment{}, fmt.Errorf("compile augment %q: %w", attr, iss.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return Augment{}, fmt.Errorf("program augment %q: %w", attr, err)
	}

	transform := func(rec memory.Record) (string, any, bool) {
		out, _, err := prg.Eval(map[string]any{"attrs": map[string]any(rec)})
		if err != nil || out == types.NullValue {
			return "", nil, false
		}
		return attr, out.Value(), true
	}

	return Augment{
		Requires:  append([]string(nil), requires...),
		Transform: transform,
	}, nil
}
