// Package transform holds the fixed catalog of composable text transforms.
// Every transform is a pure function from (text, options) to text; each one
// carries a declarative option schema from which defaults are derived.
package transform

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// ID identifies a transform. IDs are namespaced and stable across versions
// because saved workflows reference them.
type ID string

const (
	WhitespaceNormalize ID = "whitespace/normalize"
	TranscriptClean     ID = "transcript/clean"
	DedupeLines         ID = "text/dedupe-lines"
)

// FieldType is the kind of value an option field holds.
type FieldType string

const (
	FieldBoolean FieldType = "boolean"
	FieldNumber  FieldType = "number"
	FieldSelect  FieldType = "select"
)

// Choice is one entry of a select field.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field describes one configurable option of a transform.
type Field struct {
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Type    FieldType `json:"type"`
	// Default is a bool, a float64 or a string, the types JSON decoding
	// produces, so stored defaults compare equal after a round trip.
	Default any       `json:"default"`

	// number only
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step *float64 `json:"step,omitempty"`

	// select only
	Choices []Choice `json:"options,omitempty"`
}

// Options is implemented by the typed option struct of each built-in
// transform. The set of implementations is closed to this package.
type Options interface {
	transformID() ID
}

// Definition is a catalog entry. It is immutable once built.
type Definition struct {
	ID          ID
	Name        string
	Description string
	Fields      []Field

	decode func(*reader) Options
	apply  func(string, Options) string
}

// define builds a Definition whose typed apply function only ever receives
// the options type it was declared with.
func define[O Options](id ID, name, description string, fields []Field, decode func(*reader) O, apply func(string, O) string) *Definition {
	return &Definition{
		ID:          id,
		Name:        name,
		Description: description,
		Fields:      fields,
		decode:      func(r *reader) Options { return decode(r) },
		apply:       func(in string, o Options) string { return apply(in, o.(O)) },
	}
}

// Defaults returns a fresh options map holding every field's default.
func (d *Definition) Defaults() map[string]any {
	out := make(map[string]any, len(d.Fields))
	for _, f := range d.Fields {
		out[f.Key] = f.Default
	}
	return out
}

// Field returns the schema entry for key.
func (d *Definition) Field(key string) (Field, bool) {
	i := slices.IndexFunc(d.Fields, func(f Field) bool { return f.Key == key })
	if i < 0 {
		return Field{}, false
	}
	return d.Fields[i], true
}

// Decode converts a loosely typed options map into the transform's typed
// options. Missing keys take the schema default; keys without a schema entry
// are ignored.
func (d *Definition) Decode(values map[string]any) (Options, error) {
	r := &reader{def: d, values: values}
	opts := d.decode(r)
	if r.err != nil {
		return nil, r.err
	}
	return opts, nil
}

// Apply decodes values and runs the transform on input.
func (d *Definition) Apply(input string, values map[string]any) (string, error) {
	opts, err := d.Decode(values)
	if err != nil {
		return "", err
	}
	return d.apply(input, opts), nil
}

// ApplyOptions runs the transform with already typed options.
func (d *Definition) ApplyOptions(input string, opts Options) (string, error) {
	if opts == nil || opts.transformID() != d.ID {
		return "", fmt.Errorf("transform %s: options of type %T do not belong to it", d.ID, opts)
	}
	return d.apply(input, opts), nil
}

// OptionError reports an option value that does not match its field.
type OptionError struct {
	Transform ID
	Key       string
	Value     any
	Reason    string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("transform %s: option %q: %s (got %v)", e.Transform, e.Key, e.Reason, e.Value)
}

// reader pulls typed values out of an options map, falling back to schema
// defaults. The first mismatch is kept in err.
type reader struct {
	def    *Definition
	values map[string]any
	err    error
}

func (r *reader) lookup(key string) (Field, any) {
	f, ok := r.def.Field(key)
	if !ok {
		panic(fmt.Sprintf("transform %s reads undeclared option %q", r.def.ID, key))
	}
	v, ok := r.values[key]
	if !ok || v == nil {
		return f, f.Default
	}
	return f, v
}

func (r *reader) fail(key string, value any, reason string) {
	if r.err == nil {
		r.err = &OptionError{Transform: r.def.ID, Key: key, Value: value, Reason: reason}
	}
}

func (r *reader) bool(key string) bool {
	_, v := r.lookup(key)
	b, ok := v.(bool)
	if !ok {
		r.fail(key, v, "expected a boolean")
	}
	return b
}

func (r *reader) number(key string) float64 {
	f, v := r.lookup(key)
	n, ok := toFloat(v)
	if !ok || math.IsNaN(n) {
		r.fail(key, v, "expected a number")
		return 0
	}
	if f.Min != nil && n < *f.Min {
		n = *f.Min
	}
	if f.Max != nil && n > *f.Max {
		n = *f.Max
	}
	return n
}

func (r *reader) choice(key string) string {
	f, v := r.lookup(key)
	s, ok := v.(string)
	if !ok {
		r.fail(key, v, "expected a string")
		return ""
	}
	if !slices.ContainsFunc(f.Choices, func(c Choice) bool { return c.Value == s }) {
		r.fail(key, v, "not one of the allowed values")
		return ""
	}
	return s
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func ptr(f float64) *float64 { return &f }
