package value

import (
	"fmt"
	"math"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{"null", "bool", "int", "float", "string", "array", "object"}

// String returns the lower-case kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is an immutable decoded JSON value. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  *Object
}

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// NewNull returns the Null value.
func NewNull() Value { return Value{} }

// NewBool returns a Bool value.
func NewBool(b bool) Value { return Value{kind: KindBool, b: b} }

// NewInt returns an Int value.
func NewInt(i int64) Value { return Value{kind: KindInt, i: i} }

// NewFloat returns a Float value.
func NewFloat(f float64) Value { return Value{kind: KindFloat, f: f} }

// NewString returns a String value.
func NewString(s string) Value { return Value{kind: KindString, s: s} }

// NewArray returns an Array value holding elems.
func NewArray(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{kind: KindArray, arr: elems}
}

// NewObject returns an Object value with members in the given order.
// A repeated key replaces the earlier value in place.
func NewObject(members ...Member) Value {
	o := newObject(len(members))
	for _, m := range members {
		o.set(m.Key, m.Value)
	}
	return Value{kind: KindObject, obj: o}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean held by v.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Int returns the integer held by v. Floats with no fractional part
// convert.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f >= math.MinInt64 && v.f < math.MaxInt64 && v.f == math.Trunc(v.f) {
			return int64(v.f), true
		}
	}
	return 0, false
}

// Float returns the number held by v as a float64.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// Str returns the string held by v.
func (v Value) Str() (string, bool) {
	return v.s, v.kind == KindString
}

// Len returns the number of elements of an Array, members of an Object,
// or bytes of a String. Other kinds have length 0.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return v.obj.Len()
	case KindString:
		return len(v.s)
	}
	return 0
}

// Index returns element i of an Array, or Null.
func (v Value) Index(i int) Value {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}
	}
	return v.arr[i]
}

// Elements returns the elements of an Array.
func (v Value) Elements() []Value {
	if v.kind != KindArray {
		return nil
	}
	out := make([]Value, len(v.arr))
	copy(out, v.arr)
	return out
}

// Get returns the member key of an Object, or Null.
func (v Value) Get(key string) Value {
	if v.kind != KindObject {
		return Value{}
	}
	got, _ := v.obj.Get(key)
	return got
}

// Has reports whether v is an Object with member key.
func (v Value) Has(key string) bool {
	if v.kind != KindObject {
		return false
	}
	_, ok := v.obj.Get(key)
	return ok
}

// Object returns the members of an Object value.
func (v Value) Object() (*Object, bool) {
	return v.obj, v.kind == KindObject
}

// Lookup follows a path of object keys (string) and array indexes (int).
// It reports false as soon as a step is missing.
func (v Value) Lookup(keys ...any) (Value, bool) {
	cur := v
	for _, k := range keys {
		switch key := k.(type) {
		case string:
			if cur.kind != KindObject {
				return Value{}, false
			}
			next, ok := cur.obj.Get(key)
			if !ok {
				return Value{}, false
			}
			cur = next
		case int:
			if cur.kind != KindArray || key < 0 || key >= len(cur.arr) {
				return Value{}, false
			}
			cur = cur.arr[key]
		default:
			return Value{}, false
		}
	}
	return cur, true
}

// Interface converts v to plain Go values: nil, bool, int64, float64,
// string, []any and map[string]any. Object order is lost.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		for _, m := range v.obj.members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	}
	return nil
}

// Equal reports deep equality. Object member order is ignored and Int and
// Float compare by numeric value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		if (v.kind == KindInt || v.kind == KindFloat) && (o.kind == KindInt || o.kind == KindFloat) {
			a, _ := v.Float()
			b, _ := o.Float()
			return a == b
		}
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if v.obj.Len() != o.obj.Len() {
			return false
		}
		for _, m := range v.obj.members {
			other, ok := o.obj.Get(m.Key)
			if !ok || !m.Value.Equal(other) {
				return false
			}
		}
		return true
	}
	return false
}
