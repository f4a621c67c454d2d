package compiler

import "time"

// DefaultTableName is the base table detection rules are written against.
const DefaultTableName = "hplDNSReplies"

const timestampFormat = "2006-01-02 15:04:05"

// DefaultIdentifierMap resolves the bare identifiers every detection rule
// is written in terms of to their physical columns. t0 is overwritten per
// compile with the rule's reference timestamp.
func DefaultIdentifierMap() map[string]string {
	return map[string]string{
		"t0":        "(TIMESTAMP '2015-08-03 00:00:00')",
		"domain":    "request",
		"client":    "dst",
		"timestamp": "timestamp",
	}
}

// DefaultFunctionMap provides the two helper functions detection rules
// rely on: a regex match predicate and a regex occurrence count.
func DefaultFunctionMap() map[string]FuncTemplate {
	return map[string]FuncTemplate{
		"match": {Lit("(REGEXP_INSTR("), Arg(0), Lit(","), Arg(1), Lit(")>0)")},
		"count": {Lit("REGEXP_COUNT("), Arg(0), Lit(","), Arg(1), Lit(")")},
	}
}

// Options configures a single Compile call.
type Options struct {
	TableName     string
	IdentifierMap map[string]string
	FunctionMap   map[string]FuncTemplate
	Timestamp     time.Time
	WithGroupBy   bool
	SQLParams     map[string]string
}

// Compile turns DSL source into the SQL query that evaluates it, binding
// the rule's "t0" baseline identifier to opts.Timestamp for every run.
func Compile(source string, opts Options) (string, error) {
	tableName := opts.TableName
	if tableName == "" {
		tableName = DefaultTableName
	}

	idents := opts.IdentifierMap
	if idents == nil {
		idents = DefaultIdentifierMap()
	}
	idents = cloneStringMap(idents)
	idents["t0"] = "(TIMESTAMP '" + opts.Timestamp.Format(timestampFormat) + "')"

	functions := opts.FunctionMap
	if functions == nil {
		functions = DefaultFunctionMap()
	}

	list, err := parseProgram(source)
	if err != nil {
		return "", err
	}

	ctx := newContext(idents, functions)
	if err := visitPredicateList(list, ctx); err != nil {
		return "", err
	}

	basis := basisColumns{
		domain:    idents["domain"],
		client:    idents["client"],
		timestamp: idents["timestamp"],
	}
	b := newBuilder(ctx.layers, ctx.usedColumns, tableName, basis)
	return b.buildSQL(opts.WithGroupBy, opts.SQLParams)
}

func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
