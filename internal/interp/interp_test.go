package interp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sigil/internal/ast"
	"github.com/roach88/sigil/internal/parser"
	"github.com/roach88/sigil/internal/testutil"
)

const validGenesis = `⛓.genesis ≡ {root: "abc", axioms: ⟨"¬∃⫿⤳"⟩}` + "\n"

func mustParse(t *testing.T, source string) *ast.Program {
	t.Helper()
	prog, err := parser.Parse(source)
	require.NoError(t, err)
	return prog
}

// run executes source with fixed event IDs and a frozen clock so
// assertions on outputs stay deterministic.
func run(t *testing.T, source string, limits Limits, opts ...Option) (*Result, error) {
	t.Helper()
	base := []Option{
		WithEventIDs(NewFixedGenerator()),
		WithNow(func() time.Time { return time.Unix(1700000000, 0).UTC() }),
	}
	in := New(limits, append(base, opts...)...)
	return in.Execute(mustParse(t, source))
}

func TestExecute_GenesisTickLoop(t *testing.T) {
	source := validGenesis + `∀x∋⟨1,2,3⟩⟿ emit("tick", x)`

	result, err := run(t, source, DefaultLimits())
	require.NoError(t, err)

	assert.True(t, result.GenesisValid)
	assert.Equal(t, 3, result.Iterations)

	require.Len(t, result.Outputs, 3)
	for i, ev := range result.Outputs {
		assert.Equal(t, "emit", ev.Type)
		assert.Equal(t, "tick", ev.Signal)
		assert.Equal(t, int64(i+1), ev.Data)
		assert.Equal(t, i+1, ev.Seq)
	}
}

func TestExecute_NoGenesisStillRuns(t *testing.T) {
	result, err := run(t, `emit("free")`, DefaultLimits())
	require.NoError(t, err)
	assert.False(t, result.GenesisValid)
	require.Len(t, result.Outputs, 1)
}

func TestExecute_GenesisMissingRoot(t *testing.T) {
	source := `⛓.genesis ≡ {axioms: ⟨"¬∃⫿⤳"⟩}` + "\nemit(\"x\")"
	result, err := run(t, source, DefaultLimits())

	require.Error(t, err)
	assert.True(t, HasErrorCode(err, ErrCodeInvalidGenesis))
	// Validation happens before any block executes.
	assert.Empty(t, result.Outputs)
	assert.False(t, result.GenesisValid)
}

func TestExecute_GenesisMissingRequiredAxiom(t *testing.T) {
	source := `⛓.genesis ≡ {root: "abc", axioms: ⟨"other"⟩}`
	_, err := run(t, source, DefaultLimits())
	require.Error(t, err)
	assert.True(t, HasErrorCode(err, ErrCodeInvalidGenesis))
}

func TestExecute_DefinitionBindsTypedRecord(t *testing.T) {
	source := `⊕skill:answer ≡ 42` + "\nanswer"
	result, err := run(t, source, DefaultLimits())
	require.NoError(t, err)

	rec, ok := result.Value.(Map)
	require.True(t, ok)
	assert.Equal(t, Str("skill"), rec["type"])
	assert.Equal(t, Str("answer"), rec["name"])
	assert.Equal(t, Int(42), rec["value"])
}

func TestExecute_ConditionalBranches(t *testing.T) {
	tests := []struct {
		name   string
		source string
		signal string
	}{
		{"then branch", `⸮(true)⟿ emit("yes") ⫶ emit("no")`, "yes"},
		{"else branch", `⸮(false)⟿ emit("yes") ⫶ emit("no")`, "no"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := run(t, tt.source, DefaultLimits())
			require.NoError(t, err)
			// Exactly one branch evaluated.
			require.Len(t, result.Outputs, 1)
			assert.Equal(t, tt.signal, result.Outputs[0].Signal)
		})
	}
}

func TestExecute_ConditionalWithoutElseYieldsNull(t *testing.T) {
	result, err := run(t, `⸮(false)⟿ emit("yes")`, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, Null{}, result.Value)
	assert.Empty(t, result.Outputs)
}

func TestExecute_ForEachOverMapIsSorted(t *testing.T) {
	source := `∀k∋{zeta: 1, alpha: 2, mid: 3}⟿ emit("key", k)`
	result, err := run(t, source, DefaultLimits())
	require.NoError(t, err)

	require.Len(t, result.Outputs, 3)
	assert.Equal(t, "alpha", result.Outputs[0].Data)
	assert.Equal(t, "mid", result.Outputs[1].Data)
	assert.Equal(t, "zeta", result.Outputs[2].Data)
}

func TestExecute_ForEachOverStringIteratesRunes(t *testing.T) {
	source := `∀c∋"ab⟿"⟿ emit("ch", c)`
	result, err := run(t, source, DefaultLimits())
	require.NoError(t, err)

	require.Len(t, result.Outputs, 3)
	assert.Equal(t, "a", result.Outputs[0].Data)
	assert.Equal(t, "b", result.Outputs[1].Data)
	assert.Equal(t, "⟿", result.Outputs[2].Data)
}

func TestExecute_ForEachNotIterable(t *testing.T) {
	result, err := run(t, `∀x∋42⟿ emit("t", x)`, DefaultLimits())
	require.Error(t, err)
	assert.True(t, HasErrorCode(err, ErrCodeNotIterable))
	assert.Empty(t, result.Outputs)
}

func TestExecute_OversizedCollectionRejectedUpFront(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxIterations = 2

	result, err := run(t, `∀x∋⟨1,2,3⟩⟿ emit("t", x)`, limits)
	require.Error(t, err)
	assert.True(t, HasErrorCode(err, ErrCodeIterationLimit))
	// Rejected before the body ran even once.
	assert.Empty(t, result.Outputs)
	assert.Equal(t, 0, result.Iterations)
}

func TestExecute_IterationCounterIsGlobal(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxIterations = 4

	// Two loops of 3 would need 6 iterations total.
	source := `∀x∋⟨1,2,3⟩⟿ emit("a", x)` + "\n" + `∀y∋⟨1,2,3⟩⟿ emit("b", y)`
	result, err := run(t, source, limits)
	require.Error(t, err)
	assert.True(t, IsLimitError(err))
	// First loop completed; second aborted partway.
	assert.GreaterOrEqual(t, len(result.Outputs), 3)
	assert.Less(t, len(result.Outputs), 6)
}

func TestExecute_RecursionLimit(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxRecursion = 5

	source := `⊕def:spiral ≡ λ()⟿ spiral()` + "\nspiral()"
	_, err := run(t, source, limits)
	require.Error(t, err)
	assert.True(t, HasErrorCode(err, ErrCodeRecursionLimit))
}

func TestExecute_TimeLimit(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxExecutionSeconds = 1

	// Each clock read advances a full minute, so the very first
	// cooperative check after the start trips the bound.
	clock := testutil.NewStepClock(time.Unix(1700000000, 0), time.Minute)

	source := `emit("a")` + "\n" + `emit("b")`
	_, err := run(t, source, limits, WithNow(clock.Now))
	require.Error(t, err)
	assert.True(t, HasErrorCode(err, ErrCodeTimeLimit))
}

func TestExecute_UnknownFunction(t *testing.T) {
	result, err := run(t, `emit("first")`+"\nconjure()", DefaultLimits())
	require.Error(t, err)
	assert.True(t, HasErrorCode(err, ErrCodeUnknownFunction))

	// Partial results survive the failure.
	require.Len(t, result.Outputs, 1)
	assert.Equal(t, "first", result.Outputs[0].Signal)
}

func TestExecute_PartialMemorySurvivesFailure(t *testing.T) {
	source := `persist("kept", 1)` + "\nconjure()"
	result, err := run(t, source, DefaultLimits())
	require.Error(t, err)
	assert.Equal(t, Int(1), result.Memory["kept"])
}

func TestExecute_PipeIntoLambda(t *testing.T) {
	result, err := run(t, `5 ⟿ λ(x)⟿ str(x)`, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, Str("5"), result.Value)
}

func TestExecute_PipeIntoNamedClosure(t *testing.T) {
	source := `⊕def:echo ≡ λ(x)⟿ x` + "\n" + `7 ⟿ echo`
	result, err := run(t, source, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, Int(7), result.Value)
}

func TestExecute_PipeIntoNonCallableKeepsRight(t *testing.T) {
	result, err := run(t, `5 ⟿ "wall"`, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, Str("wall"), result.Value)
}

func TestExecute_BinaryOperators(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   Value
	}{
		{"equal", `1 ≡ 1`, Bool(true)},
		{"not equal", `1 ≡ 2`, Bool(false)},
		{"int float equal", `3 ≡ 3.0`, Bool(true)},
		{"contains", `⟨1,2,3⟩ ⊃ 2`, Bool(true)},
		{"contains miss", `⟨1,2,3⟩ ⊃ 9`, Bool(false)},
		{"member of", `2 ∋ ⟨1,2,3⟩`, Bool(true)},
		{"sequence keeps right", `1 ⫶ 2`, Int(2)},
		{"not true", `¬true`, Bool(false)},
		{"not null", `¬nothing`, Bool(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := run(t, tt.source, DefaultLimits())
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Value)
		})
	}
}

func TestExecute_PersistOperatorStoresNamedRecord(t *testing.T) {
	result, err := run(t, `⟼ {name: "fact", value: 7}`, DefaultLimits())
	require.NoError(t, err)

	stored, ok := result.Memory["fact"].(Map)
	require.True(t, ok)
	assert.Equal(t, Int(7), stored["value"])

	// The operator passes its operand through.
	_, ok = result.Value.(Map)
	assert.True(t, ok)
}

func TestExecute_PersistOperatorIgnoresAnonymousRecord(t *testing.T) {
	result, err := run(t, `⟼ {value: 7}`, DefaultLimits())
	require.NoError(t, err)
	assert.Empty(t, result.Memory)
}

func TestExecute_PersistEntityForm(t *testing.T) {
	t.Run("named record keys by name", func(t *testing.T) {
		result, err := run(t, `persist({name: "a", v: 1})`, DefaultLimits())
		require.NoError(t, err)
		assert.Equal(t, Bool(true), result.Value)

		stored, ok := result.Memory["a"].(Map)
		require.True(t, ok)
		assert.Equal(t, Int(1), stored["v"])
	})

	t.Run("nameless record gets generated key", func(t *testing.T) {
		source := `persist({v: 1})` + "\n" + `persist({v: 2})`
		result, err := run(t, source, DefaultLimits())
		require.NoError(t, err)

		first, ok := result.Memory["entity_0"].(Map)
		require.True(t, ok)
		assert.Equal(t, Int(1), first["v"])
		second, ok := result.Memory["entity_1"].(Map)
		require.True(t, ok)
		assert.Equal(t, Int(2), second["v"])
	})

	t.Run("non-record refuses", func(t *testing.T) {
		result, err := run(t, `persist(7)`, DefaultLimits())
		require.NoError(t, err)
		assert.Equal(t, Bool(false), result.Value)
		assert.Empty(t, result.Memory)
	})
}

func TestExecute_NewConstructor(t *testing.T) {
	t.Run("type name tags the record", func(t *testing.T) {
		result, err := run(t, `new("forma")`, DefaultLimits())
		require.NoError(t, err)

		m, ok := result.Value.(Map)
		require.True(t, ok)
		assert.Equal(t, Str("forma"), m["type"])
	})

	t.Run("no argument defaults to object", func(t *testing.T) {
		result, err := run(t, `new()`, DefaultLimits())
		require.NoError(t, err)

		m, ok := result.Value.(Map)
		require.True(t, ok)
		assert.Equal(t, Str("object"), m["type"])
	})

	t.Run("memory name builds a bounded store", func(t *testing.T) {
		result, err := run(t, `new("memory", 3)`, DefaultLimits())
		require.NoError(t, err)

		handle, ok := result.Value.(MemoryHandle)
		require.True(t, ok)
		assert.Equal(t, 3, handle.Mem.MaxEntries())
	})

	t.Run("memory glyph builds a bounded store", func(t *testing.T) {
		result, err := run(t, `new("⧬")`, DefaultLimits())
		require.NoError(t, err)

		_, ok := result.Value.(MemoryHandle)
		assert.True(t, ok)
	})

	t.Run("map argument copies the top level", func(t *testing.T) {
		in := New(DefaultLimits())
		src := Map{"kind": Str("seed")}

		v, err := builtinNew(in, []Value{src})
		require.NoError(t, err)
		out, ok := v.(Map)
		require.True(t, ok)
		assert.Equal(t, src, out)

		out["kind"] = Str("mut")
		assert.Equal(t, Str("seed"), src["kind"])
	})
}

func TestExecute_ChainExposesLangCreated(t *testing.T) {
	source := `⛓.genesis ≡ {root: "abc", lang.created: "2025-01-02", axioms: ⟨"¬∃⫿⤳"⟩}` + "\n⛓"
	result, err := run(t, source, DefaultLimits())
	require.NoError(t, err)

	chain, ok := result.Value.(Map)
	require.True(t, ok)
	gen, ok := chain["genesis"].(Map)
	require.True(t, ok)
	assert.Equal(t, Str("2025-01-02"), gen["lang.created"])
}

func TestExecute_DeleteOperator(t *testing.T) {
	source := `persist("stale", 1)` + "\n⊖stale"
	result, err := run(t, source, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, Bool(true), result.Value)
	assert.Empty(t, result.Memory)
}

func TestExecute_ReservedIdentifiers(t *testing.T) {
	t.Run("verified glyph", func(t *testing.T) {
		result, err := run(t, `✓`, DefaultLimits())
		require.NoError(t, err)
		assert.Equal(t, Bool(true), result.Value)
	})

	t.Run("error glyph", func(t *testing.T) {
		result, err := run(t, `⍼`, DefaultLimits())
		require.NoError(t, err)
		assert.Equal(t, Bool(false), result.Value)
	})

	t.Run("now glyph", func(t *testing.T) {
		result, err := run(t, `⊛`, DefaultLimits())
		require.NoError(t, err)
		assert.Equal(t, Str("2023-11-14T22:13:20Z"), result.Value)
	})

	t.Run("self exposes memory", func(t *testing.T) {
		source := `persist("k", 1)` + "\n⊙"
		result, err := run(t, source, DefaultLimits())
		require.NoError(t, err)

		self, ok := result.Value.(Map)
		require.True(t, ok)
		assert.Equal(t, Str("self"), self["type"])
		mem, ok := self["memory"].(Map)
		require.True(t, ok)
		assert.Equal(t, Int(1), mem["k"])
	})

	t.Run("chain exposes genesis", func(t *testing.T) {
		result, err := run(t, validGenesis+`⛓`, DefaultLimits())
		require.NoError(t, err)

		chain, ok := result.Value.(Map)
		require.True(t, ok)
		gen, ok := chain["genesis"].(Map)
		require.True(t, ok)
		assert.Equal(t, Str("abc"), gen["root"])
	})
}

func TestExecute_UnresolvedIdentifierIsNull(t *testing.T) {
	result, err := run(t, `phantom`, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, Null{}, result.Value)
}

func TestExecute_IdentifierFallsBackToMemory(t *testing.T) {
	source := `persist("stash", 9)` + "\nstash"
	result, err := run(t, source, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, Int(9), result.Value)
}

func TestExecute_MemoryHandleConstructor(t *testing.T) {
	result, err := run(t, `⧬.new(2)`, DefaultLimits())
	require.NoError(t, err)

	handle, ok := result.Value.(MemoryHandle)
	require.True(t, ok)
	assert.Equal(t, 2, handle.Mem.MaxEntries())
}

func TestExecute_ObjectValuesEvaluateInSourceOrder(t *testing.T) {
	source := `{zeta: emit("first"), alpha: emit("second")}`
	result, err := run(t, source, DefaultLimits())
	require.NoError(t, err)

	require.Len(t, result.Outputs, 2)
	assert.Equal(t, "first", result.Outputs[0].Signal)
	assert.Equal(t, "second", result.Outputs[1].Signal)
}

func TestExecute_ClosureCapturesDefiningScope(t *testing.T) {
	// The lambda sees the loop variable of the iteration it was called
	// in; each iteration gets a fresh child scope.
	source := `∀x∋⟨"a","b"⟩⟿ (λ()⟿ emit("cap", x))()`
	result, err := run(t, source, DefaultLimits())
	require.NoError(t, err)

	require.Len(t, result.Outputs, 2)
	assert.Equal(t, "a", result.Outputs[0].Data)
	assert.Equal(t, "b", result.Outputs[1].Data)
}

func TestExecute_CallWithMissingArgsBindsNull(t *testing.T) {
	source := `⊕def:probe ≡ λ(a, b)⟿ b` + "\nprobe(1)"
	result, err := run(t, source, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, Null{}, result.Value)
}

func TestExecute_LastBlockValueWins(t *testing.T) {
	result, err := run(t, "1\n2\n3", DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, Int(3), result.Value)
}

func TestExecute_EmptyProgram(t *testing.T) {
	result, err := run(t, "", DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, Null{}, result.Value)
	assert.Empty(t, result.Outputs)
}
