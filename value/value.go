// Package value implements the tagged Value union that flows through the
// expansion engine and the shell's scope stack.
package value

import "strings"

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindStr Kind = iota
	KindArray
	KindHashMap
	KindBTreeMap
	KindAlias
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindStr:
		return "str"
	case KindArray:
		return "array"
	case KindHashMap:
		return "hmap"
	case KindBTreeMap:
		return "bmap"
	case KindAlias:
		return "alias"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Function is the handle stored by a Function value. It is cloned by value
// (the handle itself, not the body) when a scope frame copies a variable, so
// functions are never back-linked to the scope that defined them.
type Function struct {
	Name        string
	Description string
	Args        []FuncArg
	Body        any // []syntax.Statement, kept as any to avoid an import cycle
}

// FuncArg is one declared, optionally typed, function parameter.
type FuncArg struct {
	Name string
	Type any // *syntax.TypeExpr, nil means untyped; kept as any to avoid an import cycle
}

// BTreeMap is a small ordered string-keyed map: insertion order for ranging,
// O(1) lookup for the common case. It intentionally has no back-reference to
// any scope, so Value never forms a cycle.
type BTreeMap struct {
	keys   []string
	values map[string]Value
}

// NewBTreeMap returns an empty ordered map.
func NewBTreeMap() *BTreeMap {
	return &BTreeMap{values: make(map[string]Value)}
}

func (m *BTreeMap) Set(key string, v Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func (m *BTreeMap) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *BTreeMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *BTreeMap) Len() int { return len(m.keys) }

// Clone returns a shallow copy; the parent map's key order and entries are
// duplicated but member Values are not deep-copied (Values are immutable
// from the caller's point of view once assigned).
func (m *BTreeMap) Clone() *BTreeMap {
	if m == nil {
		return nil
	}
	out := &BTreeMap{
		keys:   append([]string(nil), m.keys...),
		values: make(map[string]Value, len(m.values)),
	}
	for k, v := range m.values {
		out.values[k] = v
	}
	return out
}

// Value is the tagged union described in spec.md §3. Only the field
// matching Kind is meaningful.
type Value struct {
	Kind Kind

	Str   string
	Array []Value

	HashMap  map[string]Value
	BTreeMap *BTreeMap

	Alias string
	Func  *Function
}

func Str(s string) Value { return Value{Kind: KindStr, Str: s} }

func Arr(items ...Value) Value { return Value{Kind: KindArray, Array: items} }

func ArrStrings(items ...string) Value {
	arr := make([]Value, len(items))
	for i, s := range items {
		arr[i] = Str(s)
	}
	return Value{Kind: KindArray, Array: arr}
}

func HashMapOf(m map[string]Value) Value {
	return Value{Kind: KindHashMap, HashMap: m}
}

func BTreeMapOf(m *BTreeMap) Value {
	return Value{Kind: KindBTreeMap, BTreeMap: m}
}

func AliasOf(text string) Value { return Value{Kind: KindAlias, Alias: text} }

func FunctionOf(fn *Function) Value { return Value{Kind: KindFunction, Func: fn} }

// IsSet reports whether this Value was ever assigned (the zero Value, with
// Kind == KindStr and Str == "", is indistinguishable from an empty string;
// callers that need tri-state "unset vs empty" should track that
// separately, as the scope stack does).
func (v Value) IsSet() bool {
	return v.Kind != KindStr || v.Str != "" || v.Array != nil || v.HashMap != nil || v.BTreeMap != nil
}

// String renders a Value the way bare `$name` interpolation does: arrays
// join their elements on a single space, maps join their values the same
// way, aliases/functions render as their literal text/name.
func (v Value) String() string {
	switch v.Kind {
	case KindStr:
		return v.Str
	case KindArray:
		parts := make([]string, len(v.Array))
		for i, e := range v.Array {
			parts[i] = e.String()
		}
		return strings.Join(parts, " ")
	case KindHashMap:
		parts := make([]string, 0, len(v.HashMap))
		for _, e := range v.HashMap {
			parts = append(parts, e.String())
		}
		return strings.Join(parts, " ")
	case KindBTreeMap:
		if v.BTreeMap == nil {
			return ""
		}
		parts := make([]string, 0, v.BTreeMap.Len())
		for _, k := range v.BTreeMap.Keys() {
			e, _ := v.BTreeMap.Get(k)
			parts = append(parts, e.String())
		}
		return strings.Join(parts, " ")
	case KindAlias:
		return v.Alias
	case KindFunction:
		if v.Func != nil {
			return v.Func.Name
		}
		return ""
	default:
		return ""
	}
}

// Elements returns the ordered sequence of strings a Value expands to in
// array ("@name") context: a scalar degrades to a one-element sequence.
func (v Value) Elements() []string {
	switch v.Kind {
	case KindArray:
		out := make([]string, len(v.Array))
		for i, e := range v.Array {
			out[i] = e.String()
		}
		return out
	case KindHashMap:
		out := make([]string, 0, len(v.HashMap))
		for _, e := range v.HashMap {
			out = append(out, e.String())
		}
		return out
	case KindBTreeMap:
		if v.BTreeMap == nil {
			return nil
		}
		out := make([]string, 0, v.BTreeMap.Len())
		for _, k := range v.BTreeMap.Keys() {
			e, _ := v.BTreeMap.Get(k)
			out = append(out, e.String())
		}
		return out
	default:
		return []string{v.String()}
	}
}

// Clone returns a deep-enough copy for assignment into a new scope frame:
// slices/maps are copied so that mutating the copy never mutates the
// original, but Function handles are shared (cloned by reference, never
// back-linked), matching the "no cyclic value graphs" design note.
func (v Value) Clone() Value {
	switch v.Kind {
	case KindArray:
		arr := make([]Value, len(v.Array))
		copy(arr, v.Array)
		v.Array = arr
	case KindHashMap:
		m := make(map[string]Value, len(v.HashMap))
		for k, e := range v.HashMap {
			m[k] = e
		}
		v.HashMap = m
	case KindBTreeMap:
		v.BTreeMap = v.BTreeMap.Clone()
	}
	return v
}
