package compiler

import (
	"strconv"
	"strings"
)

// visitPredicateList is the top-level driver: every predicate set opens a
// fresh layer, including the first — a new context starts with no layers
// pre-seeded.
func visitPredicateList(list predicateListNode, c *context) error {
	for _, set := range list.sets {
		c.newLayer()
		if err := visitPredicateSet(set, c); err != nil {
			return err
		}
	}
	return nil
}

func visitPredicateSet(set predicateSetNode, c *context) error {
	for _, pred := range set.predicates {
		c.newPredicate()
		if err := visit(pred, c); err != nil {
			return err
		}
	}
	return nil
}

// visit dispatches on the concrete AST variant. The set of variants is
// closed (see ast.go); this switch must stay exhaustive.
func visit(n node, c *context) error {
	switch v := n.(type) {
	case domainLevelNode:
		c.usedColumns["d"+strconv.Itoa(v.n)] = true
		c.emit("d" + strconv.Itoa(v.n))

	case domainLevelLengthNode:
		c.usedColumns["d"+strconv.Itoa(v.n)] = true
		c.emit("LENGTH(d" + strconv.Itoa(v.n) + ")")

	case identifierNode:
		c.emit(c.lookup(v.name))

	case integerNode:
		c.emit(strconv.Itoa(v.value))

	case floatNode:
		c.emit(formatFloat(v.value))

	case stringNode:
		c.emit(v.quoted)

	case booleanNode:
		if v.value {
			c.emit("true")
		} else {
			c.emit("false")
		}

	case intervalNode:
		c.emit("INTERVAL '" + strconv.Itoa(v.hours) + " hour " + strconv.Itoa(v.minutes) + " minute'")

	case functionCallNode:
		return visitFunctionCall(v, c)

	case inExprNode:
		return visitInExpr(v, c)

	case countExprNode:
		return visitCountExpr(v, c)

	case forExprNode:
		return visitForExpr(v, c)

	case binaryOpNode:
		if err := visit(v.left, c); err != nil {
			return err
		}
		c.emit(" " + v.op + " ")
		if err := visit(v.right, c); err != nil {
			return err
		}

	case unaryOpNode:
		c.emit(v.op + " ")
		if err := visit(v.operand, c); err != nil {
			return err
		}

	default:
		return &BuildError{Message: "unhandled node type in visitor"}
	}
	return nil
}

// formatFloat appends ".0" to a whole-number float so "1.0" doesn't
// collapse to "1" and read as an integer downstream. Values Go formats
// in exponent form (e.g. "1e+21") are left without a decimal point.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func visitFunctionCall(v functionCallNode, c *context) error {
	tmpl, ok := c.functionTbl[v.name]
	if !ok {
		return &ResolveError{Name: v.name}
	}
	for _, frag := range tmpl {
		if frag.isArg {
			if frag.argIdx < 0 || frag.argIdx >= len(v.params) {
				return &BuildError{Message: "function " + v.name + " template references missing argument"}
			}
			if err := visit(v.params[frag.argIdx], c); err != nil {
				return err
			}
			continue
		}
		c.emit(frag.literal)
	}
	return nil
}

// enumItemTexts renders an enumeration's members the way the SQL builder
// expects to see them inlined: quoted strings verbatim, integers in
// decimal, floats via formatFloat.
func enumItemTexts(e enumeration) ([]string, error) {
	switch v := e.(type) {
	case stringListNode:
		return append([]string(nil), v.items...), nil
	case numberListNode:
		out := make([]string, 0, len(v.items))
		for _, item := range v.items {
			switch n := item.(type) {
			case integerNode:
				out = append(out, strconv.Itoa(n.value))
			case floatNode:
				out = append(out, formatFloat(n.value))
			}
		}
		return out, nil
	case numRangeNode:
		out := make([]string, 0, v.hi-v.lo+1)
		for i := v.lo; i <= v.hi; i++ {
			out = append(out, strconv.Itoa(i))
		}
		return out, nil
	}
	return nil, &BuildError{Message: "unhandled enumeration type"}
}

func visitInExpr(v inExprNode, c *context) error {
	items, err := enumItemTexts(v.enum)
	if err != nil {
		return err
	}
	c.emit("(")
	if err := visit(v.lhs, c); err != nil {
		return err
	}
	c.emit(" IN (")
	for i, item := range items {
		c.emit(item)
		if i != len(items)-1 {
			c.emit(",")
		}
	}
	c.emit("))")
	return nil
}

// visitCountExpr lifts a windowed COUNT into a new sublayer: an alias is
// emitted in place at the predicate's current position, and the window
// function itself is emitted one sublayer down under an independent
// SELECT item, so the SQL builder can wrap it as its own nested query.
func visitCountExpr(v countExprNode, c *context) error {
	counter := c.generateName()
	c.emit(counter)

	c.down()
	c.pushMode(modeSelect)
	c.newSelected()

	c.emit("COUNT(")
	if err := visit(v.pred, c); err != nil {
		return err
	}
	c.emit(" OR NULL) OVER(PARTITION BY ")
	for i, g := range v.group {
		if err := visit(g, c); err != nil {
			return err
		}
		if i != len(v.group)-1 {
			c.emit(",")
		}
	}
	if v.interval != nil {
		c.emit(" ORDER BY timestamp RANGE BETWEEN ")
		if err := visit(*v.interval, c); err != nil {
			return err
		}
		c.emit(" PRECEDING AND ")
		if err := visit(*v.interval, c); err != nil {
			return err
		}
		c.emit(" FOLLOWING")
	}
	c.emit(") AS ")
	c.emit(counter)

	if err := c.up(); err != nil {
		return err
	}
	c.popMode()
	return nil
}

// visitForExpr unrolls a for-expression at compile time: the loop variable
// is bound to each enumeration member in turn as a literal SQL fragment,
// and the body is re-visited once per member, summed as 0/1 CASE terms.
func visitForExpr(v forExprNode, c *context) error {
	items, err := enumItemTexts(v.enum)
	if err != nil {
		return err
	}
	c.emit("(")
	for i, item := range items {
		c.define(v.variable, item)
		c.emit("(CASE WHEN (")
		if err := visit(v.body, c); err != nil {
			c.undefine(v.variable)
			return err
		}
		c.emit(") THEN 1 ELSE 0 END)")
		if i != len(items)-1 {
			c.emit("+")
		}
	}
	c.undefine(v.variable)
	c.emit(")")
	return nil
}
