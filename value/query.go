package value

import (
	"sort"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/kbukum/rawes/errors"
)

// Query runs a jq expression over v and returns every output.
//
//	ids, err := v.Query(".hits.hits[]._id")
func (v Value) Query(expression string) ([]Value, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, errors.InvalidInput("jq", err.Error()).WithCause(err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, errors.InvalidInput("jq", err.Error()).WithCause(err)
	}

	order := newKeyOrder(v)
	var out []Value
	iter := code.Run(v.jqInput())
	for {
		x, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := x.(error); isErr {
			if halt, ok := err.(*gojq.HaltError); ok && halt.Value() == nil {
				break
			}
			return nil, errors.InvalidInput("jq", err.Error()).WithCause(err)
		}
		r, err := order.value(x)
		if err != nil {
			return nil, errors.DecodeFailure(err)
		}
		out = append(out, r)
	}
	return out, nil
}

// jqInput converts v to the value types gojq accepts. Integers become int.
func (v Value) jqInput() any {
	switch v.kind {
	case KindInt:
		return int(v.i)
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.jqInput()
		}
		return out
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		for _, m := range v.obj.members {
			out[m.Key] = m.Value.jqInput()
		}
		return out
	}
	return v.Interface()
}

// keyOrder restores member order on jq outputs, which gojq holds as Go maps.
// An output object with the same key set as an input object takes that
// object's order; other objects follow the order keys first appear in the
// input, with new keys sorted after them.
type keyOrder struct {
	bySet map[string][]string
	rank  map[string]int
}

func newKeyOrder(v Value) *keyOrder {
	o := &keyOrder{bySet: make(map[string][]string), rank: make(map[string]int)}
	o.collect(v)
	return o
}

func (o *keyOrder) collect(v Value) {
	switch v.kind {
	case KindArray:
		for _, e := range v.arr {
			o.collect(e)
		}
	case KindObject:
		keys := make([]string, len(v.obj.members))
		for i, m := range v.obj.members {
			keys[i] = m.Key
			if _, ok := o.rank[m.Key]; !ok {
				o.rank[m.Key] = len(o.rank)
			}
		}
		sig := keySet(keys)
		if _, ok := o.bySet[sig]; !ok {
			o.bySet[sig] = keys
		}
		for _, m := range v.obj.members {
			o.collect(m.Value)
		}
	}
}

func (o *keyOrder) keys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	if known, ok := o.bySet[keySet(keys)]; ok {
		return known
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := o.rank[keys[i]]
		rj, jok := o.rank[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		}
		return keys[i] < keys[j]
	})
	return keys
}

func (o *keyOrder) value(x any) (Value, error) {
	switch t := x.(type) {
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			v, err := o.value(e)
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return Value{kind: KindArray, arr: elems}, nil
	case map[string]any:
		keys := o.keys(t)
		obj := newObject(len(keys))
		for _, k := range keys {
			v, err := o.value(t[k])
			if err != nil {
				return Value{}, err
			}
			obj.set(k, v)
		}
		return Value{kind: KindObject, obj: obj}, nil
	}
	return FromInterface(x)
}

func keySet(keys []string) string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}
