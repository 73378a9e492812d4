// Package baseline detects whether a tool's options drifted away from the
// recipe they were loaded from.
package baseline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"
)

// CircularMarker replaces a value that refers back to one of its ancestors.
const CircularMarker = "[Circular]"

// TimeLayout is the fixed, millisecond precision UTC form used for times.
const TimeLayout = "2006-01-02T15:04:05.000Z"

var timeType = reflect.TypeOf(time.Time{})

// Canonical encodes v as JSON with object keys sorted at every level.
// Arrays keep their order, times are written in TimeLayout and cycles are
// replaced by CircularMarker.
func Canonical(v any) (string, error) {
	e := &encoder{onPath: make(map[visit]bool)}
	if err := e.encode(reflect.ValueOf(v)); err != nil {
		return "", err
	}
	return e.buf.String(), nil
}

// Equal reports whether a and b have the same canonical form.
func Equal(a, b any) (bool, error) {
	ca, err := Canonical(a)
	if err != nil {
		return false, err
	}
	cb, err := Canonical(b)
	if err != nil {
		return false, err
	}
	return ca == cb, nil
}

type visit struct {
	ptr uintptr
	typ reflect.Type
	n   int
}

type encoder struct {
	buf    bytes.Buffer
	onPath map[visit]bool
}

func (e *encoder) encode(v reflect.Value) error {
	if !v.IsValid() {
		e.buf.WriteString("null")
		return nil
	}
	if v.Type() == timeType {
		return e.scalar(v.Interface().(time.Time).UTC().Format(TimeLayout))
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		return e.encode(v.Elem())
	case reflect.Pointer:
		if v.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		return e.guarded(v, 0, func() error { return e.encode(v.Elem()) })
	case reflect.Map:
		if v.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		return e.guarded(v, 0, func() error { return e.encodeMap(v) })
	case reflect.Slice:
		if v.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return e.scalar(v.Interface())
		}
		return e.guarded(v, v.Len(), func() error { return e.encodeList(v) })
	case reflect.Array:
		return e.encodeList(v)
	case reflect.Struct:
		return e.encodeStruct(v)
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return fmt.Errorf("canonical: unsupported type %s", v.Type())
	default:
		return e.scalar(v.Interface())
	}
}

// guarded runs fn unless v is already being encoded further up the path.
func (e *encoder) guarded(v reflect.Value, n int, fn func() error) error {
	key := visit{ptr: v.Pointer(), typ: v.Type(), n: n}
	if e.onPath[key] {
		return e.scalar(CircularMarker)
	}
	e.onPath[key] = true
	defer delete(e.onPath, key)
	return fn()
}

func (e *encoder) scalar(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e.buf.Write(b)
	return nil
}

func (e *encoder) encodeList(v reflect.Value) error {
	e.buf.WriteByte('[')
	for i := range v.Len() {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		if err := e.encode(v.Index(i)); err != nil {
			return err
		}
	}
	e.buf.WriteByte(']')
	return nil
}

type member struct {
	name  string
	value reflect.Value
}

func (e *encoder) encodeMap(v reflect.Value) error {
	members := make([]member, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k := iter.Key()
		var name string
		switch k.Kind() {
		case reflect.String:
			name = k.String()
		default:
			name = fmt.Sprint(k.Interface())
		}
		members = append(members, member{name: name, value: iter.Value()})
	}
	return e.encodeObject(members)
}

func (e *encoder) encodeStruct(v reflect.Value) error {
	t := v.Type()
	members := make([]member, 0, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		omitEmpty := false
		if tag, ok := f.Tag.Lookup("json"); ok {
			if tag == "-" {
				continue
			}
			tagName, opts, _ := strings.Cut(tag, ",")
			if tagName != "" {
				name = tagName
			}
			omitEmpty = slices.Contains(strings.Split(opts, ","), "omitempty")
		}
		fv := v.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		members = append(members, member{name: name, value: fv})
	}
	return e.encodeObject(members)
}

func (e *encoder) encodeObject(members []member) error {
	slices.SortFunc(members, func(a, b member) int { return strings.Compare(a.name, b.name) })
	e.buf.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		if err := e.scalar(m.name); err != nil {
			return err
		}
		e.buf.WriteByte(':')
		if err := e.encode(m.value); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}
