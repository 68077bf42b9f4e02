package issue

import (
	"strconv"
	"strings"
)

// Kind tells which shape a custom field value arrived in.
type Kind int

const (
	Empty Kind = iota
	Scalar
	SingleRef
	MultiRef
)

// Ref is a named reference: a user (displayName) or a select option (value).
type Ref struct {
	Name string
}

// FieldValue is a custom field value resolved into one of a fixed set of shapes.
type FieldValue struct {
	Kind   Kind
	Scalar string
	Refs   []Ref
}

// NormalizeField resolves a decoded JSON custom field value.
//
//	nil, "", [], {}             -> Empty
//	"text", 4, true             -> Scalar
//	{"displayName": ...}        -> SingleRef
//	{"value": ...}, {"name": ...} -> SingleRef
//	[ref, ref, ...]             -> MultiRef
//
// List items that do not resolve to a name keep their position as an empty Ref.
func NormalizeField(v any) FieldValue {
	switch x := v.(type) {
	case nil:
		return FieldValue{}
	case string:
		if strings.TrimSpace(x) == "" {
			return FieldValue{}
		}
		return FieldValue{Kind: Scalar, Scalar: x}
	case float64:
		return FieldValue{Kind: Scalar, Scalar: strconv.FormatFloat(x, 'f', -1, 64)}
	case bool:
		return FieldValue{Kind: Scalar, Scalar: strconv.FormatBool(x)}
	case map[string]any:
		if name, ok := refName(x); ok {
			return FieldValue{Kind: SingleRef, Refs: []Ref{{Name: name}}}
		}
		return FieldValue{}
	case []any:
		refs := make([]Ref, 0, len(x))
		named := false
		for _, item := range x {
			f := NormalizeField(item)
			switch f.Kind {
			case Scalar:
				refs = append(refs, Ref{Name: f.Scalar})
			case SingleRef, MultiRef:
				refs = append(refs, f.Refs[0])
			default:
				refs = append(refs, Ref{})
			}
			named = named || refs[len(refs)-1].Name != ""
		}
		if !named {
			return FieldValue{}
		}
		return FieldValue{Kind: MultiRef, Refs: refs}
	default:
		return FieldValue{}
	}
}

func refName(m map[string]any) (string, bool) {
	for _, k := range []string{"displayName", "value", "name"} {
		if s, ok := m[k].(string); ok {
			return s, true
		}
	}
	return "", false
}

// FirstOrDefault returns the scalar, or the first reference name.
// Multi-value fields keep only their first element.
func (f FieldValue) FirstOrDefault(def string) string {
	switch f.Kind {
	case Scalar:
		return f.Scalar
	case SingleRef, MultiRef:
		if len(f.Refs) > 0 && f.Refs[0].Name != "" {
			return f.Refs[0].Name
		}
	}
	return def
}

// Number reads a numeric custom field; anything else is 0.
func Number(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f
		}
	}
	return 0
}
