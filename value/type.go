package value

import "fmt"

// Primitive is the scalar type tag of the Type model (spec.md §3). The
// executor's `let k: T` and `fn arg:T` checks do not use it.
type Primitive uint8

const (
	Any Primitive = iota
	PStr
	PBool
	PInt
	PFloat
)

func (p Primitive) String() string {
	switch p {
	case PStr:
		return "str"
	case PBool:
		return "bool"
	case PInt:
		return "int"
	case PFloat:
		return "float"
	default:
		return "any"
	}
}

// ParsePrimitive maps the surface type names from `fn name arg:T` onto a
// Primitive; ok is false for an unrecognised name.
func ParsePrimitive(name string) (Primitive, bool) {
	switch name {
	case "int":
		return PInt, true
	case "float":
		return PFloat, true
	case "bool":
		return PBool, true
	case "str":
		return PStr, true
	default:
		return Any, false
	}
}

// Type is the full type tag: a primitive, optionally wrapped in Array, or
// one of the two map shapes, or an index into a containing type.
type Type struct {
	Prim     Primitive
	IsArray  bool
	HashMap  *Type // non-nil => HashMap(inner)
	BTreeMap *Type // non-nil => BTreeMap(inner)
	Indexed  *IndexedType
}

// IndexedType models Indexed(index, inner): a single slot of a container
// type, used when `let arr[2]: int = 5` narrows an assignment to one index.
type IndexedType struct {
	Index int
	Inner *Type
}

func (t Type) String() string {
	switch {
	case t.HashMap != nil:
		return fmt.Sprintf("hmap[%s]", t.HashMap.Prim)
	case t.BTreeMap != nil:
		return fmt.Sprintf("bmap[%s]", t.BTreeMap.Prim)
	case t.Indexed != nil:
		return fmt.Sprintf("%s[%d]", t.Indexed.Inner, t.Indexed.Index)
	case t.IsArray:
		return t.Prim.String() + "[]"
	default:
		return t.Prim.String()
	}
}

// Accepts reports whether v satisfies this type tag, for assignment
// checking. Any always accepts.
func (t Type) Accepts(v Value) bool {
	if t.Prim == Any && !t.IsArray && t.HashMap == nil && t.BTreeMap == nil && t.Indexed == nil {
		return true
	}
	switch {
	case t.HashMap != nil:
		return v.Kind == KindHashMap
	case t.BTreeMap != nil:
		return v.Kind == KindBTreeMap
	case t.IsArray:
		return v.Kind == KindArray
	default:
		return t.Prim.acceptsScalar(v)
	}
}

func (p Primitive) acceptsScalar(v Value) bool {
	if v.Kind != KindStr {
		return false
	}
	switch p {
	case PInt:
		return isInt(v.Str)
	case PFloat:
		return isFloat(v.Str)
	case PBool:
		return v.Str == "true" || v.Str == "false"
	default:
		return true
	}
}

func isInt(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '-' || s[0] == '+' {
		i++
	}
	if i == len(s) {
		return false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isFloat(s string) bool {
	if isInt(s) {
		return true
	}
	seenDot, seenDigit := false, false
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	for ; i < len(s); i++ {
		switch {
		case s[i] == '.' && !seenDot:
			seenDot = true
		case s[i] >= '0' && s[i] <= '9':
			seenDigit = true
		default:
			return false
		}
	}
	return seenDigit
}
