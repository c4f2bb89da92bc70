package interp

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/sigil/internal/ast"
)

// Value is a sealed interface over the closed runtime value set.
// Only Null, Bool, Int, Float, Str, List, Map, *Closure, *NativeFunc and
// MemoryHandle implement it. There is no open "any" escape hatch: every
// evaluation site switches over this set exhaustively.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null is the absent value. Unresolved identifiers evaluate to it.
type Null struct{}

func (Null) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// Int is an integer value, always int64.
type Int int64

func (Int) value() {}

// Float is a decimal value.
type Float float64

func (Float) value() {}

// Str is a string value.
type Str string

func (Str) value() {}

// List is an ordered sequence of values.
type List []Value

func (List) value() {}

// Map is a string-keyed record. Use SortedKeys for deterministic
// iteration; Go map order is randomized.
type Map map[string]Value

func (Map) value() {}

// SortedKeys returns the map's keys in ascending order.
func (m Map) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Closure pairs a lambda's parameter list and body with its defining
// scope. Produced lazily at lambda evaluation, executed only when called.
type Closure struct {
	Params []string
	Body   ast.Node
	Scope  *Scope
}

func (*Closure) value() {}

// NativeFunc is a host-provided callable, used for constructor values
// such as the memory handle's new property. Not expressible in source.
type NativeFunc struct {
	Name string
	Fn   func(args []Value) (Value, error)
}

func (*NativeFunc) value() {}

// MemoryHandle exposes a Memory store as a first-class value.
type MemoryHandle struct {
	Mem *Memory
}

func (MemoryHandle) value() {}

// Truthy reports the truthiness of a value: Null, false, zero, the empty
// string and empty collections are false; everything else is true.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil, Null:
		return false
	case Bool:
		return bool(val)
	case Int:
		return val != 0
	case Float:
		return val != 0
	case Str:
		return len(val) > 0
	case List:
		return len(val) > 0
	case Map:
		return len(val) > 0
	default:
		return true
	}
}

// Equal compares two values structurally. Int and Float compare by
// numeric value, so Int(3) ≡ Float(3.0).
func Equal(a, b Value) bool {
	if an, aok := numeric(a); aok {
		if bn, bok := numeric(b); bok {
			return an == bn
		}
		return false
	}

	switch av := a.(type) {
	case nil, Null:
		_, bNull := b.(Null)
		return b == nil || bNull
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv, ok := b.(Map)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, present := bv[k]
			if !present || !Equal(v, bval) {
				return false
			}
		}
		return true
	default:
		// Closures, native funcs and memory handles compare by identity.
		return a == b
	}
}

func numeric(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n), true
	case Float:
		return float64(n), true
	default:
		return 0, false
	}
}

// Contains reports whether collection holds item: list membership by
// Equal, map key presence, or substring for strings. Non-collections
// contain nothing.
func Contains(collection, item Value) bool {
	switch c := collection.(type) {
	case List:
		for _, v := range c {
			if Equal(v, item) {
				return true
			}
		}
		return false
	case Map:
		key, ok := item.(Str)
		if !ok {
			return false
		}
		_, present := c[string(key)]
		return present
	case Str:
		needle, ok := item.(Str)
		if !ok {
			return false
		}
		return strings.Contains(string(c), string(needle))
	default:
		return false
	}
}

// Length returns the element count of a collection or string, 0 for
// everything else.
func Length(v Value) int {
	switch c := v.(type) {
	case List:
		return len(c)
	case Map:
		return len(c)
	case Str:
		return len([]rune(string(c)))
	default:
		return 0
	}
}

// ToString renders a value for display and string coercion.
func ToString(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		if val {
			return "true"
		}
		return "false"
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Str:
		return string(val)
	case List:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = ToString(item)
		}
		return "⟨" + strings.Join(parts, ", ") + "⟩"
	case Map:
		parts := make([]string, 0, len(val))
		for _, k := range val.SortedKeys() {
			parts = append(parts, fmt.Sprintf("%s: %s", k, ToString(val[k])))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *Closure:
		return "λ(" + strings.Join(val.Params, ", ") + ")"
	case *NativeFunc:
		return "native:" + val.Name
	case MemoryHandle:
		return fmt.Sprintf("⧬(%d entries)", val.Mem.Len())
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToInt coerces a value to an integer; unconvertible values yield 0.
func ToInt(v Value) int64 {
	switch val := v.(type) {
	case Bool:
		if val {
			return 1
		}
		return 0
	case Int:
		return int64(val)
	case Float:
		return int64(val)
	case Str:
		n, err := strconv.ParseInt(strings.TrimSpace(string(val)), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// ToFloat coerces a value to a float; unconvertible values yield 0.
func ToFloat(v Value) float64 {
	switch val := v.(type) {
	case Bool:
		if val {
			return 1
		}
		return 0
	case Int:
		return float64(val)
	case Float:
		return float64(val)
	case Str:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(val)), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
