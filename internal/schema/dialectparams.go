package schema

import "fmt"

// DialectParams is the parameter bag carried by a DialectSpecific column
// type. Per the design notes, it is represented as a tagged union of the
// three known shapes the spec names, plus an opaque passthrough, rather than
// a free-form map everywhere except at serialization boundaries.
type DialectParams struct {
	// Values holds a parenthesized, quoted value list, e.g. ENUM(values=[...]).
	Values    []string
	HasValues bool

	// Length holds a single scalar length parameter, e.g. VARBIT(length=16).
	Length    int
	HasLength bool

	// Array marks the PostgreSQL array suffix, e.g. TEXT(array=true).
	Array    bool
	HasArray bool

	// Raw holds any parameter the three known shapes above can't express,
	// keyed exactly as it appeared in the source YAML. Parse failures during
	// introspection round-trip through here so no information is lost.
	Raw map[string]any
}

// Equal reports whether two parameter bags are structurally identical.
func (p DialectParams) Equal(o DialectParams) bool {
	if p.HasValues != o.HasValues || !stringsEqual(p.Values, o.Values) {
		return false
	}
	if p.HasLength != o.HasLength || p.Length != o.Length {
		return false
	}
	if p.HasArray != o.HasArray || p.Array != o.Array {
		return false
	}
	if len(p.Raw) != len(o.Raw) {
		return false
	}
	for k, v := range p.Raw {
		ov, ok := o.Raw[k]
		if !ok || fmt.Sprint(v) != fmt.Sprint(ov) {
			return false
		}
	}
	return true
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// UnmarshalYAML decodes the open map shape the schema YAML format uses
// (e.g. `values: [...]`, `length: 16`, `array: true`) into the tagged union.
func (p *DialectParams) UnmarshalYAML(unmarshal func(any) error) error {
	var raw map[string]any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return p.fromMap(raw)
}

func (p *DialectParams) fromMap(raw map[string]any) error {
	*p = DialectParams{Raw: make(map[string]any)}
	for key, val := range raw {
		switch key {
		case "values":
			items, ok := val.([]any)
			if !ok {
				return fmt.Errorf("dialect param %q: expected a list, got %T", key, val)
			}
			p.Values = make([]string, len(items))
			for i, item := range items {
				p.Values[i] = fmt.Sprint(item)
			}
			p.HasValues = true
		case "length":
			n, err := toInt(val)
			if err != nil {
				return fmt.Errorf("dialect param %q: %w", key, err)
			}
			p.Length = n
			p.HasLength = true
		case "array":
			b, ok := val.(bool)
			if !ok {
				return fmt.Errorf("dialect param %q: expected a bool, got %T", key, val)
			}
			p.Array = b
			p.HasArray = true
		default:
			p.Raw[key] = val
		}
	}
	return nil
}

// MarshalYAML encodes the tagged union back into the open map shape.
func (p DialectParams) MarshalYAML() (any, error) {
	out := make(map[string]any, len(p.Raw)+3)
	if p.HasValues {
		out["values"] = p.Values
	}
	if p.HasLength {
		out["length"] = p.Length
	}
	if p.HasArray {
		out["array"] = p.Array
	}
	for k, v := range p.Raw {
		out[k] = v
	}
	return out, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
