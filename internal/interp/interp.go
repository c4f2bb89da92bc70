// Package interp implements the sigil tree-walking interpreter.
//
// Evaluation is single-threaded and fully synchronous: a call into
// Execute occupies the calling goroutine until it returns a result,
// raises a runtime error, or is cut short by a cooperative limit check.
// Top-level blocks and loop bodies execute strictly in source/collection
// order; there is no reordering, speculation, or cancellation API.
//
// Hard resource bounds (iterations, recursion depth, wall-clock time,
// memory entries) are checked at every node evaluation and loop
// iteration. The time check is cooperative, not preemptive: a single
// long-running builtin between checks cannot be interrupted mid-call.
//
// On failure the interpreter aborts remaining evaluation but still
// returns whatever outputs, logs, and Memory mutations accumulated
// before the failure - partial results are never silently discarded.
// A host running two programs against the same Memory concurrently must
// add its own synchronization; this package assumes one active
// evaluation.
package interp

import (
	"time"

	"github.com/roach88/sigil/internal/ast"
)

// Result is the bundle handed back from one program execution. It is
// populated even on failure, up to the point the error occurred.
type Result struct {
	// Value is the last top-level block's value.
	Value Value

	// Outputs are the emitted events, in emission order.
	Outputs []Event

	// Logs are the log builtin's messages, in call order.
	Logs []string

	// Memory is the final store contents, for the caller to persist.
	Memory Map

	// Iterations is the global loop iteration counter.
	Iterations int

	// Elapsed is wall-clock execution time.
	Elapsed time.Duration

	// GenesisValid reports whether a genesis block was present and
	// passed pre-execution validation.
	GenesisValid bool
}

// Interpreter evaluates parsed programs under explicit resource limits.
// Not safe for concurrent use; create one per evaluation or serialize
// externally.
type Interpreter struct {
	limits  Limits
	memory  *Memory
	global  *Scope
	scope   *Scope
	genesis *ast.GenesisBlock

	iterations int
	depth      int
	started    time.Time
	now        func() time.Time
	idGen      EventIDGenerator

	outputs []Event
	logs    []string
	seq     int
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithNow injects the clock used for limit checks, TTLs, and event
// timestamps. Tests pass a fixed or stepping clock for determinism.
func WithNow(now func() time.Time) Option {
	return func(in *Interpreter) {
		in.now = now
	}
}

// WithEventIDs overrides the event ID generator.
// Default: UUIDv7Generator.
func WithEventIDs(gen EventIDGenerator) Option {
	return func(in *Interpreter) {
		in.idGen = gen
	}
}

// WithMemory seeds the interpreter with an existing store, typically
// loaded from the persistence layer before the run.
func WithMemory(mem *Memory) Option {
	return func(in *Interpreter) {
		in.memory = mem
	}
}

// New creates an Interpreter with the given limits.
func New(limits Limits, opts ...Option) *Interpreter {
	in := &Interpreter{
		limits: limits,
		now:    time.Now,
		idGen:  UUIDv7Generator{},
	}

	for _, opt := range opts {
		opt(in)
	}

	if in.memory == nil {
		in.memory = NewMemoryAt(limits.MaxMemoryEntries, in.now)
	}
	in.global = NewScope(nil)
	in.scope = in.global
	return in
}

// Memory returns the interpreter's store, for seeding and inspection.
func (in *Interpreter) Memory() *Memory {
	return in.memory
}

// Execute evaluates every top-level block in source order and returns the
// result bundle. On error, the returned Result still carries the partial
// outputs, logs, memory contents and counters accumulated so far.
func (in *Interpreter) Execute(prog *ast.Program) (*Result, error) {
	in.started = in.now()
	in.iterations = 0
	in.depth = 0
	in.outputs = nil
	in.logs = nil
	in.seq = 0

	var execErr error
	if prog.Genesis != nil {
		if err := in.validateGenesis(prog.Genesis); err != nil {
			execErr = err
		} else {
			in.genesis = prog.Genesis
		}
	}

	var last Value = Null{}
	if execErr == nil {
		for _, block := range prog.Blocks {
			if err := in.checkLimits(); err != nil {
				execErr = err
				break
			}
			v, err := in.eval(block)
			if err != nil {
				execErr = err
				break
			}
			last = v
		}
	}

	result := &Result{
		Value:        last,
		Outputs:      in.outputs,
		Logs:         in.logs,
		Memory:       in.memory.Snapshot(),
		Iterations:   in.iterations,
		Elapsed:      in.now().Sub(in.started),
		GenesisValid: in.genesis != nil,
	}
	return result, execErr
}

// validateGenesis checks a present genesis block before execution:
// the root ancestor must be set and the required axiom present.
func (in *Interpreter) validateGenesis(gen *ast.GenesisBlock) error {
	if gen.Root == "" {
		return newErrorAt(ErrCodeInvalidGenesis, gen.Position(), "genesis block missing root")
	}
	for _, axiom := range gen.Axioms {
		if axiom == ast.RequiredAxiom {
			return nil
		}
	}
	return newErrorAt(ErrCodeInvalidGenesis, gen.Position(),
		"genesis block missing required axiom (%s)", ast.RequiredAxiom)
}

// checkLimits enforces the iteration, recursion and wall-clock bounds.
// Called at every node evaluation and before every loop iteration.
func (in *Interpreter) checkLimits() error {
	if in.iterations > in.limits.MaxIterations {
		return newError(ErrCodeIterationLimit,
			"iteration limit exceeded (%d)", in.limits.MaxIterations)
	}
	if in.depth > in.limits.MaxRecursion {
		return newError(ErrCodeRecursionLimit,
			"recursion limit exceeded (%d)", in.limits.MaxRecursion)
	}
	if in.now().Sub(in.started) > in.limits.MaxExecutionTime() {
		return newError(ErrCodeTimeLimit,
			"execution time exceeded (%gs)", in.limits.MaxExecutionSeconds)
	}
	return nil
}

// eval dispatches on the closed AST variant set. The switch is
// exhaustive: a new variant fails here loudly rather than silently
// evaluating to null.
func (in *Interpreter) eval(node ast.Node) (Value, error) {
	if err := in.checkLimits(); err != nil {
		return nil, err
	}

	switch n := node.(type) {
	case *ast.Literal:
		return literalValue(n), nil

	case *ast.Identifier:
		return in.resolveIdentifier(n), nil

	case *ast.Definition:
		return in.evalDefinition(n)

	case *ast.Conditional:
		return in.evalConditional(n)

	case *ast.ForEach:
		return in.evalForEach(n)

	case *ast.Sequence:
		return in.evalSequence(n)

	case *ast.FunctionCall:
		return in.evalFunctionCall(n)

	case *ast.Lambda:
		return &Closure{Params: n.Params, Body: n.Body, Scope: in.scope}, nil

	case *ast.PropertyAccess:
		return in.evalPropertyAccess(n)

	case *ast.BinaryOp:
		return in.evalBinaryOp(n)

	case *ast.UnaryOp:
		return in.evalUnaryOp(n)

	case *ast.ObjectLiteral:
		return in.evalObject(n)

	case *ast.ArrayLiteral:
		return in.evalArray(n)

	case *ast.Program, *ast.GenesisBlock:
		// Structural nodes; never evaluated as expressions.
		return Null{}, nil

	default:
		return Null{}, nil
	}
}

func literalValue(n *ast.Literal) Value {
	switch v := n.Value.(type) {
	case string:
		return Str(v)
	case int64:
		return Int(v)
	case float64:
		return Float(v)
	case bool:
		return Bool(v)
	default:
		return Null{}
	}
}

// resolveIdentifier resolves a name: reserved glyphs first, then the
// scope chain, then Memory. Unresolved names evaluate to Null rather
// than raising.
func (in *Interpreter) resolveIdentifier(n *ast.Identifier) Value {
	switch n.Name {
	case "⊙": // self
		return Map{
			"type":   Str("self"),
			"memory": in.memory.Snapshot(),
		}
	case "⧬": // memory handle
		return MemoryHandle{Mem: in.memory}
	case "⛓": // chain/genesis reference
		if in.genesis == nil {
			return Map{"genesis": Null{}}
		}
		return Map{"genesis": genesisValue(in.genesis)}
	case "⊛": // now
		return Str(in.now().Format(time.RFC3339))
	case "✓":
		return Bool(true)
	case "⍼":
		return Bool(false)
	}

	if v, ok := in.scope.Get(n.Name); ok {
		return v
	}
	if v, ok := in.memory.Get(n.Name); ok {
		return v
	}
	return Null{}
}

func genesisValue(gen *ast.GenesisBlock) Map {
	axioms := make(List, len(gen.Axioms))
	for i, a := range gen.Axioms {
		axioms[i] = Str(a)
	}
	origin := make(List, len(gen.Origin))
	for i, o := range gen.Origin {
		origin[i] = Str(o)
	}
	return Map{
		"root":         Str(gen.Root),
		"created":      Str(gen.Created),
		"lang.created": Str(gen.LangCreated),
		"author":       Str(gen.Author),
		"axioms":       axioms,
		"origin":       origin,
	}
}

// evalDefinition evaluates the body and binds the result into the
// current scope, tagged with its declared type name.
func (in *Interpreter) evalDefinition(n *ast.Definition) (Value, error) {
	value, err := in.eval(n.Body)
	if err != nil {
		return nil, err
	}

	in.scope.Set(n.Name, Map{
		"type":  Str(n.TypeName),
		"name":  Str(n.Name),
		"value": value,
	})
	return value, nil
}

func (in *Interpreter) evalConditional(n *ast.Conditional) (Value, error) {
	cond, err := in.eval(n.Condition)
	if err != nil {
		return nil, err
	}

	if Truthy(cond) {
		return in.eval(n.Then)
	}
	if n.Else != nil {
		return in.eval(n.Else)
	}
	return Null{}, nil
}

// evalForEach iterates a list, map (sorted keys), or string (runes) in
// its natural order, creating a fresh child scope per iteration. A
// collection larger than the iteration limit is rejected up front
// rather than iterated partially.
func (in *Interpreter) evalForEach(n *ast.ForEach) (Value, error) {
	coll, err := in.eval(n.Collection)
	if err != nil {
		return nil, err
	}

	var items List
	switch c := coll.(type) {
	case List:
		items = c
	case Map:
		for _, k := range c.SortedKeys() {
			items = append(items, Str(k))
		}
	case Str:
		for _, r := range string(c) {
			items = append(items, Str(string(r)))
		}
	default:
		return nil, newErrorAt(ErrCodeNotIterable, n.Position(),
			"cannot iterate over %s", ToString(coll))
	}

	if len(items) > in.limits.MaxIterations {
		return nil, newErrorAt(ErrCodeIterationLimit, n.Position(),
			"collection too large (%d > %d)", len(items), in.limits.MaxIterations)
	}

	var last Value = Null{}
	outer := in.scope
	for _, item := range items {
		in.iterations++
		if err := in.checkLimits(); err != nil {
			in.scope = outer
			return nil, err
		}

		in.scope = NewScope(outer)
		in.scope.Set(n.Variable, item)
		v, err := in.eval(n.Body)
		if err != nil {
			in.scope = outer
			return nil, err
		}
		last = v
	}
	in.scope = outer
	return last, nil
}

func (in *Interpreter) evalSequence(n *ast.Sequence) (Value, error) {
	var last Value = Null{}
	for _, stmt := range n.Statements {
		v, err := in.eval(stmt)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

// evalFunctionCall resolves the builtin table first, then closures
// bound in scope. Calling an unrecognized name is a runtime error.
func (in *Interpreter) evalFunctionCall(n *ast.FunctionCall) (Value, error) {
	if n.Name != "" {
		if fn, ok := builtins[n.Name]; ok {
			args, err := in.evalArgs(n.Args)
			if err != nil {
				return nil, err
			}
			return fn(in, args)
		}

		if bound, ok := in.scope.Get(n.Name); ok {
			if callee := asCallable(bound); callee != nil {
				args, err := in.evalArgs(n.Args)
				if err != nil {
					return nil, err
				}
				return in.call(callee, args, n)
			}
		}

		return nil, newErrorAt(ErrCodeUnknownFunction, n.Position(),
			"unknown function: %s", n.Name)
	}

	// Computed callee, e.g. ⧬.new(...) or (λ...)(x).
	calleeVal, err := in.eval(n.Callee)
	if err != nil {
		return nil, err
	}
	callee := asCallable(calleeVal)
	if callee == nil {
		return nil, newErrorAt(ErrCodeUnknownFunction, n.Position(),
			"value %s is not callable", ToString(calleeVal))
	}
	args, err := in.evalArgs(n.Args)
	if err != nil {
		return nil, err
	}
	return in.call(callee, args, n)
}

func (in *Interpreter) evalArgs(nodes []ast.Node) ([]Value, error) {
	args := make([]Value, 0, len(nodes))
	for _, arg := range nodes {
		v, err := in.eval(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// asCallable extracts a callable from a value. Definition records wrap
// their bound value in a type-tagged map, so a closure defined via
// ⊕def:name ≡ λ... unwraps transparently.
func asCallable(v Value) Value {
	switch val := v.(type) {
	case *Closure, *NativeFunc:
		return val
	case Map:
		if inner, ok := val["value"]; ok {
			switch inner := inner.(type) {
			case *Closure, *NativeFunc:
				return inner
			}
		}
		return nil
	default:
		return nil
	}
}

// call invokes a closure or native func. Closure calls increment the
// recursion counter, bind parameters positionally in a fresh child
// scope (missing arguments bind to null), and decrement the counter
// symmetrically even when the body fails, so depth never leaks.
func (in *Interpreter) call(callee Value, args []Value, site *ast.FunctionCall) (Value, error) {
	switch fn := callee.(type) {
	case *NativeFunc:
		return fn.Fn(args)

	case *Closure:
		in.depth++
		defer func() { in.depth-- }()

		if err := in.checkLimits(); err != nil {
			return nil, err
		}

		caller := in.scope
		in.scope = NewScope(fn.Scope)
		defer func() { in.scope = caller }()

		for i, param := range fn.Params {
			if i < len(args) {
				in.scope.Set(param, args[i])
			} else {
				in.scope.Set(param, Null{})
			}
		}

		return in.eval(fn.Body)

	default:
		return nil, newErrorAt(ErrCodeUnknownFunction, site.Position(),
			"value %s is not callable", ToString(callee))
	}
}

// evalPropertyAccess looks up a named field on record-like values. On
// the memory handle, "new" yields a constructor for a fresh store;
// other properties dereference entries. Everything else is null.
func (in *Interpreter) evalPropertyAccess(n *ast.PropertyAccess) (Value, error) {
	obj, err := in.eval(n.Object)
	if err != nil {
		return nil, err
	}

	switch o := obj.(type) {
	case Map:
		if v, ok := o[n.Property]; ok {
			return v, nil
		}
		return Null{}, nil

	case MemoryHandle:
		if n.Property == "new" {
			return memoryConstructor(in), nil
		}
		if v, ok := o.Mem.Get(n.Property); ok {
			return v, nil
		}
		return Null{}, nil

	default:
		return Null{}, nil
	}
}

// memoryConstructor returns the callable behind ⧬.new. An optional
// integer argument bounds the fresh store; it defaults to the run's
// memory entry limit.
func memoryConstructor(in *Interpreter) *NativeFunc {
	return &NativeFunc{
		Name: "memory.new",
		Fn: func(args []Value) (Value, error) {
			maxEntries := in.limits.MaxMemoryEntries
			if len(args) > 0 {
				if n, ok := args[0].(Int); ok && n > 0 {
					maxEntries = int(n)
				}
			}
			return MemoryHandle{Mem: NewMemoryAt(maxEntries, in.now)}, nil
		},
	}
}

func (in *Interpreter) evalBinaryOp(n *ast.BinaryOp) (Value, error) {
	left, err := in.eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.eval(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Operator {
	case "≡":
		return Bool(Equal(left, right)), nil

	case "⟿":
		// Flow/pipe: a callable right-hand side is invoked with the
		// left-hand value; otherwise the right-hand value wins.
		if callee := asCallable(right); callee != nil {
			return in.call(callee, []Value{left}, &ast.FunctionCall{
				Pos: ast.Pos{At: n.Position()},
			})
		}
		return right, nil

	case "⊃":
		return Bool(Contains(left, right)), nil

	case "∋":
		return Bool(Contains(right, left)), nil

	case "⫶":
		// Sequencing: both sides already evaluated; keep the right.
		return right, nil

	default:
		return Null{}, nil
	}
}

func (in *Interpreter) evalUnaryOp(n *ast.UnaryOp) (Value, error) {
	// Delete targets a name, not a value, so it resolves the operand
	// itself rather than evaluating it.
	if n.Operator == "⊖" {
		if id, ok := n.Operand.(*ast.Identifier); ok {
			return Bool(in.memory.Delete(id.Name)), nil
		}
		return Bool(false), nil
	}

	operand, err := in.eval(n.Operand)
	if err != nil {
		return nil, err
	}

	switch n.Operator {
	case "¬":
		return Bool(!Truthy(operand)), nil

	case "⟼":
		// Persist: a record carrying a name field is stored into Memory
		// under that name. Capacity overflow is a no-op, not an error.
		if rec, ok := operand.(Map); ok {
			if name, ok := rec["name"].(Str); ok {
				in.memory.Set(string(name), rec)
			}
		}
		return operand, nil

	default:
		return operand, nil
	}
}

// evalObject evaluates entries in source order.
func (in *Interpreter) evalObject(n *ast.ObjectLiteral) (Value, error) {
	out := make(Map, len(n.Entries))
	for _, key := range n.Keys {
		v, err := in.eval(n.Entries[key])
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func (in *Interpreter) evalArray(n *ast.ArrayLiteral) (Value, error) {
	out := make(List, 0, len(n.Items))
	for _, item := range n.Items {
		v, err := in.eval(item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// nextEvent stamps and appends an output event, returning it as a value.
func (in *Interpreter) nextEvent(ev Event) Value {
	in.seq++
	ev.ID = in.idGen.Generate()
	ev.Seq = in.seq
	ev.Timestamp = in.now()
	in.outputs = append(in.outputs, ev)

	out := Map{
		"id":   Str(ev.ID),
		"type": Str(ev.Type),
		"seq":  Int(ev.Seq),
	}
	if ev.Signal != "" {
		out["signal"] = Str(ev.Signal)
	}
	if ev.Agent != "" {
		out["agent"] = Str(ev.Agent)
	}
	if ev.Task != "" {
		out["task"] = Str(ev.Task)
	}
	if ev.Data != nil {
		out["data"] = FromJSONValue(ev.Data)
	}
	return out
}
