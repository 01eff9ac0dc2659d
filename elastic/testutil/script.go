package testutil

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/kbukum/rawes/value"
)

// runScript evaluates an update script against source. The script sees
// the document as ctx._source and each parameter as a top-level variable,
// e.g. "ctx._source.value += value".
func runScript(script string, params value.Value, source value.Value) (value.Value, error) {
	vm := goja.New()

	src, ok := source.Interface().(map[string]any)
	if !ok {
		src = map[string]any{}
	}
	ctxObj := vm.NewObject()
	if err := ctxObj.Set("_source", src); err != nil {
		return value.Value{}, err
	}
	if err := vm.Set("ctx", ctxObj); err != nil {
		return value.Value{}, err
	}
	if p, ok := params.Interface().(map[string]any); ok {
		for k, v := range p {
			if err := vm.Set(k, v); err != nil {
				return value.Value{}, err
			}
		}
	}

	if _, err := vm.RunString(script); err != nil {
		return value.Value{}, fmt.Errorf("failed to execute script: %w", err)
	}

	out, ok := ctxObj.Get("_source").Export().(map[string]any)
	if !ok {
		return value.Value{}, fmt.Errorf("script left ctx._source as %T", ctxObj.Get("_source").Export())
	}
	updated, err := value.FromInterface(normalizeExport(out))
	if err != nil {
		return value.Value{}, err
	}
	return keepOrder(source, updated), nil
}

// normalizeExport converts goja's exported numbers into the types
// value.FromInterface accepts.
func normalizeExport(x any) any {
	switch t := x.(type) {
	case map[string]any:
		for k, v := range t {
			t[k] = normalizeExport(v)
		}
		return t
	case []any:
		for i, v := range t {
			t[i] = normalizeExport(v)
		}
		return t
	case float32:
		return float64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	}
	return x
}

// mergeDoc applies a partial document: members of doc replace or extend
// those of source.
func mergeDoc(source, doc value.Value) value.Value {
	dobj, ok := doc.Object()
	if !ok {
		return source
	}
	var members []value.Member
	if sobj, ok := source.Object(); ok {
		for _, m := range sobj.Members() {
			if v, ok := dobj.Get(m.Key); ok {
				m.Value = v
			}
			members = append(members, m)
		}
	}
	for _, m := range dobj.Members() {
		if !source.Has(m.Key) {
			members = append(members, m)
		}
	}
	return value.NewObject(members...)
}

// keepOrder lists updated's members in source's key order, followed by
// new keys.
func keepOrder(source, updated value.Value) value.Value {
	uobj, ok := updated.Object()
	if !ok {
		return updated
	}
	var members []value.Member
	if sobj, ok := source.Object(); ok {
		for _, key := range sobj.Keys() {
			if v, ok := uobj.Get(key); ok {
				members = append(members, value.Member{Key: key, Value: v})
			}
		}
	}
	for _, m := range uobj.Members() {
		if !source.Has(m.Key) {
			members = append(members, m)
		}
	}
	return value.NewObject(members...)
}
