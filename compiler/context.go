package compiler

import "fmt"

type bufferMode int

const (
	modeWhere bufferMode = iota
	modeSelect
)

// sublayer holds the two append-only item buffers a layer accumulates
// while it (or a count expression lifted into it) is visited.
type sublayer struct {
	selectBuf [][]string
	whereBuf  [][]string
}

type layer struct {
	sublayers []*sublayer
}

// FuncFragment is one piece of a function-call emission template: either a
// literal string emitted verbatim, or the index of a call-site argument
// to recursively visit. FuncTemplate is the ordered sequence that a
// FunctionMap entry maps a function name to.
type FuncFragment struct {
	literal string
	isArg   bool
	argIdx  int
}

type FuncTemplate []FuncFragment

// Lit builds a literal template fragment, emitted verbatim.
func Lit(s string) FuncFragment { return FuncFragment{literal: s} }

// Arg builds a template fragment that recursively visits the i'th
// argument of the call site.
func Arg(i int) FuncFragment { return FuncFragment{isArg: true, argIdx: i} }

// context is the single mutable compilation state threaded through every
// AST visit. One context belongs to exactly one Compile call.
type context struct {
	layers       []*layer
	curLayerIdx  int
	curSubIdx    int
	curMode      bufferMode
	modeStack    []bufferMode
	lookupTable  map[string]string
	functionTbl  map[string]FuncTemplate
	defineTable  map[string]string
	usedColumns  map[string]bool
	genIdx       int
}

func newContext(lookup map[string]string, functions map[string]FuncTemplate) *context {
	lt := make(map[string]string, len(lookup))
	for k, v := range lookup {
		lt[k] = v
	}
	return &context{
		lookupTable: lt,
		functionTbl: functions,
		defineTable: map[string]string{},
		usedColumns: map[string]bool{},
		curMode:     modeWhere,
	}
}

// newLayer opens a fresh top-level SQL nesting layer; called once per
// predicate_set in the source program, including the first.
func (c *context) newLayer() {
	c.layers = append(c.layers, &layer{sublayers: []*sublayer{{}}})
	c.curLayerIdx = len(c.layers) - 1
	c.curSubIdx = 0
}

func (c *context) curLayer() *layer {
	return c.layers[c.curLayerIdx]
}

func (c *context) curSublayer() *sublayer {
	return c.curLayer().sublayers[c.curSubIdx]
}

func (c *context) curBuffer() *[][]string {
	s := c.curSublayer()
	if c.curMode == modeSelect {
		return &s.selectBuf
	}
	return &s.whereBuf
}

func (c *context) newPredicate() {
	buf := c.curBuffer()
	*buf = append(*buf, []string{})
}

func (c *context) newSelected() {
	c.newPredicate()
}

func (c *context) emit(s string) {
	buf := c.curBuffer()
	last := len(*buf) - 1
	(*buf)[last] = append((*buf)[last], s)
}

func (c *context) pushMode(m bufferMode) {
	c.modeStack = append(c.modeStack, c.curMode)
	c.curMode = m
}

func (c *context) popMode() {
	n := len(c.modeStack) - 1
	c.curMode = c.modeStack[n]
	c.modeStack = c.modeStack[:n]
}

func (c *context) down() {
	l := c.curLayer()
	c.curSubIdx++
	if len(l.sublayers) <= c.curSubIdx {
		l.sublayers = append(l.sublayers, &sublayer{})
	}
}

func (c *context) up() error {
	c.curSubIdx--
	if c.curSubIdx < 0 {
		return fmt.Errorf("compiler: up() called below sublayer 0")
	}
	return nil
}

func (c *context) generateName() string {
	idx := c.genIdx
	c.genIdx++
	return fmt.Sprintf("number_%d", idx)
}

func (c *context) define(id, replacement string) {
	c.defineTable[id] = replacement
}

func (c *context) undefine(id string) {
	delete(c.defineTable, id)
}

// lookup resolves an identifier to a SQL fragment: a define-table binding
// (from an enclosing for-expression) takes priority, then the nxdomain
// shorthand, then the identifier map, falling back to the name itself.
// Every identifier-map resolution, and every name that falls back to
// itself, is added to usedColumns, except for the t0 baseline-timestamp
// sentinel.
func (c *context) lookup(name string) string {
	if replacement, ok := c.defineTable[name]; ok {
		return replacement
	}
	if name == "nxdomain" {
		return "(cat='NXDOMAIN')"
	}
	col, ok := c.lookupTable[name]
	if !ok {
		col = name
	}
	if name == "t0" {
		return col
	}
	c.usedColumns[col] = true
	return col
}
