package codec

import (
	"bytes"
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/rawes/errors"
	"github.com/kbukum/rawes/value"
)

// TimeLayout is the default rendering of time.Time values, after UTC
// conversion.
const TimeLayout = "2006-01-02T15:04:05Z"

// DateLayout is the rendering used by DateOnly.
const DateLayout = "2006-01-02"

// ContentTypeJSON is the content type of encoded bodies.
const ContentTypeJSON = "application/json"

const maxDepth = 1000

// EncodeFunc overrides the encoding of individual values. It is called for
// every node before the default rules. When ok is true, replacement is
// encoded in place of v; the function is not called again on the
// replacement itself but is called on its children.
type EncodeFunc func(v any) (replacement any, ok bool, err error)

// DateOnly renders time.Time values as calendar dates in their own zone.
func DateOnly(v any) (any, bool, error) {
	switch t := v.(type) {
	case time.Time:
		return t.Format(DateLayout), true, nil
	case *time.Time:
		if t != nil {
			return t.Format(DateLayout), true, nil
		}
	}
	return nil, false, nil
}

// Chain tries each function in order and uses the first that matches.
func Chain(fns ...EncodeFunc) EncodeFunc {
	return func(v any) (any, bool, error) {
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			r, ok, err := fn(v)
			if err != nil || ok {
				return r, ok, err
			}
		}
		return nil, false, nil
	}
}

var (
	timeType          = reflect.TypeOf(time.Time{})
	valueType         = reflect.TypeOf(value.Value{})
	jsonNumberType    = reflect.TypeOf(json.Number(""))
	marshalerType     = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// Encode renders v as compact JSON.
func Encode(v any, override EncodeFunc) ([]byte, error) {
	e := &encoder{override: override}
	if err := e.encode(reflect.ValueOf(v), 0, true); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

// EncodeBody prepares a request body. Nil yields no body; string and
// []byte are sent verbatim with no content type; anything else is encoded
// as JSON.
func EncodeBody(body any, override EncodeFunc) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return []byte(b), "", nil
	case []byte:
		return b, "", nil
	}
	data, err := Encode(body, override)
	if err != nil {
		return nil, "", err
	}
	return data, ContentTypeJSON, nil
}

// EncodeBulk renders items as newline-delimited JSON with a trailing
// newline, the bulk request format.
func EncodeBulk(items []any, override EncodeFunc) ([]byte, error) {
	var buf bytes.Buffer
	for _, item := range items {
		line, err := Encode(item, override)
		if err != nil {
			return nil, err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

type encoder struct {
	buf      bytes.Buffer
	override EncodeFunc
}

func (e *encoder) encode(rv reflect.Value, depth int, useOverride bool) error {
	if rv.IsValid() && rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		e.buf.WriteString("null")
		return nil
	}
	if depth > maxDepth {
		return errors.SerializationFailure(rv.Type().String(), fmt.Errorf("nesting deeper than %d levels", maxDepth))
	}

	if useOverride && e.override != nil && rv.CanInterface() {
		repl, ok, err := e.override(rv.Interface())
		if err != nil {
			return errors.SerializationFailure(rv.Type().String(), err)
		}
		if ok {
			return e.encode(reflect.ValueOf(repl), depth+1, false)
		}
	}

	switch rv.Type() {
	case timeType:
		t := rv.Interface().(time.Time)
		e.writeString(t.UTC().Format(TimeLayout))
		return nil
	case valueType:
		b, err := rv.Interface().(value.Value).MarshalJSON()
		if err != nil {
			return errors.SerializationFailure("value.Value", err)
		}
		e.buf.Write(b)
		return nil
	case jsonNumberType:
		n := rv.String()
		if !json.Valid([]byte(n)) {
			return errors.SerializationFailure("json.Number", fmt.Errorf("invalid number literal %q", n))
		}
		e.buf.WriteString(n)
		return nil
	}

	if rv.Kind() != reflect.Pointer && rv.Type().Implements(marshalerType) {
		return e.marshaler(rv)
	}

	switch rv.Kind() {
	case reflect.Bool:
		e.buf.WriteString(strconv.FormatBool(rv.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.buf.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		e.buf.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		return e.float(rv)
	case reflect.String:
		e.writeString(rv.String())
	case reflect.Pointer:
		if rv.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		switch rv.Type().Elem() {
		case timeType, valueType, jsonNumberType:
			return e.encode(rv.Elem(), depth+1, true)
		}
		if rv.Type().Implements(marshalerType) {
			return e.marshaler(rv)
		}
		return e.encode(rv.Elem(), depth+1, true)
	case reflect.Slice:
		if rv.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			e.writeString(base64.StdEncoding.EncodeToString(rv.Bytes()))
			return nil
		}
		return e.array(rv, depth)
	case reflect.Array:
		return e.array(rv, depth)
	case reflect.Map:
		return e.object(rv, depth)
	case reflect.Struct:
		return e.structure(rv, depth)
	default:
		return errors.SerializationFailure(rv.Type().String(), fmt.Errorf("%s values have no JSON form", rv.Kind()))
	}
	return nil
}

func (e *encoder) float(rv reflect.Value) error {
	f := rv.Float()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return errors.SerializationFailure(rv.Type().String(), fmt.Errorf("%v has no JSON form", f))
	}
	var (
		b   []byte
		err error
	)
	if rv.Kind() == reflect.Float32 {
		b, err = json.Marshal(float32(f))
	} else {
		b, err = json.Marshal(f)
	}
	if err != nil {
		return errors.SerializationFailure(rv.Type().String(), err)
	}
	e.buf.Write(b)
	return nil
}

func (e *encoder) array(rv reflect.Value, depth int) error {
	e.buf.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		if err := e.encode(rv.Index(i), depth+1, true); err != nil {
			return err
		}
	}
	e.buf.WriteByte(']')
	return nil
}

type mapEntry struct {
	key string
	val reflect.Value
}

func (e *encoder) object(rv reflect.Value, depth int) error {
	if rv.IsNil() {
		e.buf.WriteString("null")
		return nil
	}

	entries := make([]mapEntry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key, err := mapKey(iter.Key())
		if err != nil {
			return errors.SerializationFailure(rv.Type().String(), err)
		}
		entries = append(entries, mapEntry{key: key, val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	e.buf.WriteByte('{')
	for i, ent := range entries {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.writeString(ent.key)
		e.buf.WriteByte(':')
		if err := e.encode(ent.val, depth+1, true); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}

// mapKey follows encoding/json: string kinds, TextMarshalers and integers.
func mapKey(k reflect.Value) (string, error) {
	if k.Kind() == reflect.String {
		return k.String(), nil
	}
	if k.Type().Implements(textMarshalerType) {
		if k.Kind() == reflect.Pointer && k.IsNil() {
			return "", nil
		}
		b, err := k.Interface().(encoding.TextMarshaler).MarshalText()
		return string(b), err
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	return "", fmt.Errorf("unsupported map key type %s", k.Type())
}

// structure encodes exported fields in declaration order under their json
// tag names, so every field value passes through the override and the
// time rules. Embedded structs without a tag name are flattened.
func (e *encoder) structure(rv reflect.Value, depth int) error {
	e.buf.WriteByte('{')
	first := true
	for _, f := range cachedFields(rv.Type()) {
		fv, ok := fieldByIndex(rv, f.index)
		if !ok {
			continue
		}
		if f.omitEmpty && isEmptyValue(fv) {
			continue
		}
		if !first {
			e.buf.WriteByte(',')
		}
		first = false
		e.writeString(f.name)
		e.buf.WriteByte(':')
		if err := e.encode(fv, depth+1, true); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}

// marshaler delegates json.Marshaler implementations to encoding/json.
func (e *encoder) marshaler(rv reflect.Value) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rv.Interface()); err != nil {
		return errors.SerializationFailure(rv.Type().String(), err)
	}
	e.buf.Write(bytes.TrimRight(buf.Bytes(), "\n"))
	return nil
}

func (e *encoder) writeString(s string) {
	enc := json.NewEncoder(&e.buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	e.buf.Truncate(e.buf.Len() - 1)
}

type field struct {
	name      string
	index     []int
	omitEmpty bool
}

var fieldCache sync.Map // reflect.Type -> []field

func cachedFields(t reflect.Type) []field {
	if f, ok := fieldCache.Load(t); ok {
		return f.([]field)
	}
	f, _ := fieldCache.LoadOrStore(t, typeFields(t, nil, map[reflect.Type]bool{}))
	return f.([]field)
}

// typeFields lists the encodable fields of t. A name already taken by a
// shallower field wins over a promoted one.
func typeFields(t reflect.Type, index []int, visited map[reflect.Type]bool) []field {
	if visited[t] {
		return nil
	}
	visited[t] = true
	defer delete(visited, t)

	var (
		fields   []field
		promoted []field
	)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		idx := append(append([]int(nil), index...), i)

		if sf.Anonymous && name == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && !ft.Implements(marshalerType) && ft != timeType {
				promoted = append(promoted, typeFields(ft, idx, visited)...)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		fields = append(fields, field{
			name:      name,
			index:     idx,
			omitEmpty: strings.Contains(","+opts+",", ",omitempty,"),
		})
	}

	taken := make(map[string]bool, len(fields))
	for _, f := range fields {
		taken[f.name] = true
	}
	for _, f := range promoted {
		if !taken[f.name] {
			taken[f.name] = true
			fields = append(fields, f)
		}
	}
	return fields
}

// fieldByIndex walks index, reporting false when it crosses a nil
// embedded pointer.
func fieldByIndex(rv reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return reflect.Value{}, false
			}
			rv = rv.Elem()
		}
		rv = rv.Field(x)
	}
	return rv, true
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}
