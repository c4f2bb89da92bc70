package interp

import "fmt"

// builtinFunc is the signature of every builtin. Builtins receive the
// interpreter so emit/spawn can stamp events and persist/load can reach
// Memory; pure conversions ignore it.
type builtinFunc func(in *Interpreter, args []Value) (Value, error)

// builtins is the fixed builtin table. Dispatch checks it before the
// scope chain, so a user definition cannot shadow a builtin name.
var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		"emit":    builtinEmit,
		"log":     builtinLog,
		"detect":  builtinDetect,
		"persist": builtinPersist,
		"load":    builtinLoad,
		"spawn":   builtinSpawn,
		"new":     builtinNew,
		"len":     builtinLen,
		"keys":    builtinKeys,
		"str":     builtinStr,
		"int":     builtinInt,
		"float":   builtinFloat,
		"bool":    builtinBool,
	}
}

// builtinEmit records an emission event. First argument is the signal,
// optional second is an attached payload.
func builtinEmit(in *Interpreter, args []Value) (Value, error) {
	ev := Event{Type: "emit"}
	if len(args) > 0 {
		ev.Signal = ToString(args[0])
	}
	if len(args) > 1 {
		ev.Data = ToJSONValue(args[1])
	}
	return in.nextEvent(ev), nil
}

// builtinLog appends a message to the run's log stream and passes the
// value through, so log calls compose inside pipes.
func builtinLog(in *Interpreter, args []Value) (Value, error) {
	if len(args) == 0 {
		return Null{}, nil
	}
	in.logs = append(in.logs, ToString(args[0]))
	return args[0], nil
}

// builtinDetect is the pattern-detection hook. No detector backend is
// wired, so it always reports no match.
func builtinDetect(in *Interpreter, args []Value) (Value, error) {
	return Bool(false), nil
}

// builtinPersist writes into Memory. Two forms: persist(entity) stores
// a record under its name field, generating an entity_N key when the
// record has none; persist(key, value[, ttl]) stores an explicit pair.
// Returns whether the store accepted the entry; a full store refuses
// new keys without raising.
func builtinPersist(in *Interpreter, args []Value) (Value, error) {
	if len(args) == 0 {
		return Bool(false), nil
	}
	if len(args) == 1 {
		rec, ok := args[0].(Map)
		if !ok {
			return Bool(false), nil
		}
		key := fmt.Sprintf("entity_%d", in.memory.Len())
		if name, ok := rec["name"].(Str); ok {
			key = string(name)
		}
		return Bool(in.memory.Set(key, rec)), nil
	}
	key := ToString(args[0])
	if len(args) > 2 {
		if ttl := ToFloat(args[2]); ttl > 0 {
			return Bool(in.memory.SetTTL(key, args[1], ttl)), nil
		}
	}
	return Bool(in.memory.Set(key, args[1])), nil
}

// builtinLoad reads a key from Memory. Missing or expired keys load as
// null.
func builtinLoad(in *Interpreter, args []Value) (Value, error) {
	if len(args) == 0 {
		return Null{}, nil
	}
	if v, ok := in.memory.Get(ToString(args[0])); ok {
		return v, nil
	}
	return Null{}, nil
}

// builtinSpawn records a spawn event: spawn(agent[, task]). The runtime
// does not start anything; the event is the host's cue.
func builtinSpawn(in *Interpreter, args []Value) (Value, error) {
	ev := Event{Type: "spawn_proposal"}
	if len(args) > 0 {
		ev.Agent = ToString(args[0])
	}
	if len(args) > 1 {
		ev.Task = ToString(args[1])
	}
	return in.nextEvent(ev), nil
}

// builtinNew constructs a fresh instance. new(type_name) returns a
// record tagged with that type; new("memory") and new("⧬") return a
// fresh bounded Memory, sized by an optional second argument. With a
// map argument it copies the top level, so the original is not aliased.
func builtinNew(in *Interpreter, args []Value) (Value, error) {
	if len(args) == 0 {
		return Map{"type": Str("object")}, nil
	}

	switch src := args[0].(type) {
	case Str:
		if src == "memory" || src == "⧬" {
			maxEntries := in.limits.MaxMemoryEntries
			if len(args) > 1 {
				if n, ok := args[1].(Int); ok && n > 0 {
					maxEntries = int(n)
				}
			}
			return MemoryHandle{Mem: NewMemoryAt(maxEntries, in.now)}, nil
		}
		return Map{"type": src}, nil
	case Map:
		out := make(Map, len(src))
		for k, v := range src {
			out[k] = v
		}
		return out, nil
	default:
		return Map{"type": Str("object")}, nil
	}
}

func builtinLen(in *Interpreter, args []Value) (Value, error) {
	if len(args) == 0 {
		return Int(0), nil
	}
	return Int(Length(args[0])), nil
}

// builtinKeys lists a map's keys in sorted order. Non-map arguments
// yield an empty list.
func builtinKeys(in *Interpreter, args []Value) (Value, error) {
	if len(args) == 0 {
		return List{}, nil
	}
	m, ok := args[0].(Map)
	if !ok {
		if h, isHandle := args[0].(MemoryHandle); isHandle {
			keys := h.Mem.Keys()
			out := make(List, len(keys))
			for i, k := range keys {
				out[i] = Str(k)
			}
			return out, nil
		}
		return List{}, nil
	}
	sorted := m.SortedKeys()
	out := make(List, len(sorted))
	for i, k := range sorted {
		out[i] = Str(k)
	}
	return out, nil
}

func builtinStr(in *Interpreter, args []Value) (Value, error) {
	if len(args) == 0 {
		return Str(""), nil
	}
	return Str(ToString(args[0])), nil
}

// builtinInt converts to an integer. Unconvertible values become 0.
func builtinInt(in *Interpreter, args []Value) (Value, error) {
	if len(args) == 0 {
		return Int(0), nil
	}
	return Int(ToInt(args[0])), nil
}

// builtinFloat converts to a float. Unconvertible values become 0.
func builtinFloat(in *Interpreter, args []Value) (Value, error) {
	if len(args) == 0 {
		return Float(0), nil
	}
	return Float(ToFloat(args[0])), nil
}

func builtinBool(in *Interpreter, args []Value) (Value, error) {
	if len(args) == 0 {
		return Bool(false), nil
	}
	return Bool(Truthy(args[0])), nil
}
