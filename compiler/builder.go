package compiler

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`<[A-Za-z]+>`)

// CheckPlaceholders reports whether sql still carries an unsubstituted
// "<name>" placeholder. Compile never calls this itself — a leftover
// placeholder isn't a compile failure, it's valid SQL text the caller
// may or may not care about. A caller about to run the query against a
// warehouse should check here first rather than let the placeholder
// reach the database as literal text.
func CheckPlaceholders(sql string) error {
	if loc := placeholderPattern.FindString(sql); loc != "" {
		return &PlaceholderError{Placeholder: loc}
	}
	return nil
}

// sqlLine is either a plain string or a nested sqlBlock; nesting mirrors
// the compiler's own layer nesting and is rendered with one extra level
// of 4-space indentation per depth by joinRecursive.
type sqlLine interface{}
type sqlBlock []sqlLine

// basisColumns names the three columns every rendered SELECT always
// carries, derived from the identifier map's domain/client/timestamp
// entries — the same map used to resolve identifiers during visiting.
type basisColumns struct {
	domain    string
	client    string
	timestamp string
}

type builder struct {
	layers            []*layer
	usedColumns       map[string]bool
	tableName         string
	basis             basisColumns
	depth             int
	additionalRowsStr string
}

func newBuilder(layers []*layer, usedColumns map[string]bool, tableName string, basis basisColumns) *builder {
	taken := map[string]bool{basis.domain: true, basis.client: true, basis.timestamp: true}
	var additional []string
	for col := range usedColumns {
		if !taken[col] {
			additional = append(additional, col)
		}
	}
	sort.Strings(additional)
	additionalStr := strings.Join(additional, ", ")
	if additionalStr != "" {
		additionalStr = ", " + additionalStr
	}
	return &builder{
		layers:            layers,
		usedColumns:       usedColumns,
		tableName:         tableName,
		basis:             basis,
		additionalRowsStr: additionalStr,
	}
}

// buildSQL renders the fully nested query. sqlParams substitutes any
// "<name>" placeholder left in the template (none of the built-in
// templates emit one today, but the substitution pass itself is part of
// the contract so a future template can use it); anything still
// unsubstituted is left as-is, angle brackets and all.
func (b *builder) buildSQL(withGroupBy bool, sqlParams map[string]string) (string, error) {
	if len(b.layers) == 0 {
		return "", &BuildError{Message: "program has no predicate sets to compile"}
	}

	sql, err := b.buildRootLayer(b.layers[0])
	if err != nil {
		return "", err
	}
	for _, l := range b.layers[1:] {
		sql = b.buildLayer(l, sql)
	}

	if withGroupBy {
		sql = sqlBlock{
			fmt.Sprintf("SELECT %s, COUNT(%s) AS freq", b.basis.client, b.basis.client),
			"FROM (",
			sql,
			") layer_group",
			fmt.Sprintf("GROUP BY %s", b.basis.client),
		}
	}

	out := joinRecursive(sql, 0)
	for name, repl := range sqlParams {
		out = strings.ReplaceAll(out, "<"+name+">", repl)
	}
	return out, nil
}

// buildRootLayer renders the innermost layer: a plain scan over the base
// table. It must carry exactly one sublayer — a count lifted all the way
// to the root layer would force a correlated window function directly
// over the base table, which is refused for performance reasons.
func (b *builder) buildRootLayer(l *layer) (sqlBlock, error) {
	if len(l.sublayers) > 1 {
		return nil, &BuildError{Message: "lowest layer cannot contain any count for performance reasons"}
	}
	sub := l.sublayers[0]

	var predicates sqlBlock
	if len(sub.whereBuf) > 0 {
		predicates = append(predicates, "    "+strings.Join(sub.whereBuf[0], ""))
		for _, items := range sub.whereBuf[1:] {
			predicates = append(predicates, "    AND "+strings.Join(items, ""))
		}
	} else {
		predicates = append(predicates, "TRUE")
	}

	sql := sqlBlock{
		fmt.Sprintf("SELECT %s, %s%s, MAX(%s) AS %s", b.basis.domain, b.basis.client, b.additionalRowsStr, b.basis.timestamp, b.basis.timestamp),
		"FROM " + b.tableName,
		"WHERE",
	}
	sql = append(sql, predicates...)
	sql = append(sql, fmt.Sprintf("GROUP BY dst, request%s", b.additionalRowsStr))
	return sql, nil
}

// buildLayer folds a layer's sublayers, innermost-last, into sql: each
// sublayer produces its own independent, fully-wrapped SELECT around
// whatever came before it.
func (b *builder) buildLayer(l *layer, sql sqlBlock) sqlBlock {
	for i := len(l.sublayers) - 1; i >= 0; i-- {
		sql = b.buildSublayer(l.sublayers[i], sql)
	}
	return sql
}

func (b *builder) buildSublayer(sub *sublayer, prev sqlBlock) sqlBlock {
	selectLines := sqlBlock{fmt.Sprintf("SELECT %s, %s%s, %s", b.basis.domain, b.basis.client, b.additionalRowsStr, b.basis.timestamp)}
	for _, items := range sub.selectBuf {
		last := len(selectLines) - 1
		selectLines[last] = selectLines[last].(string) + ","
		selectLines = append(selectLines, "    "+strings.Join(items, ""))
	}

	var predicates []string
	for _, items := range sub.whereBuf {
		if len(predicates) > 0 {
			predicates = append(predicates, "    AND "+strings.Join(items, ""))
		} else {
			predicates = append(predicates, strings.Join(items, ""))
		}
	}
	var where sqlBlock
	if len(predicates) > 0 {
		where = append(where, "WHERE "+predicates[0])
		for _, p := range predicates[1:] {
			where = append(where, p)
		}
	}

	result := make(sqlBlock, 0, len(selectLines)+3+len(where))
	result = append(result, selectLines...)
	result = append(result, "FROM (", prev, fmt.Sprintf(") layer_%d", b.depth))
	result = append(result, where...)
	b.depth++
	return result
}

func joinRecursive(block sqlBlock, depth int) string {
	lines := make([]string, 0, len(block))
	indent := strings.Repeat("    ", depth)
	for _, l := range block {
		switch v := l.(type) {
		case string:
			lines = append(lines, indent+v)
		case sqlBlock:
			lines = append(lines, joinRecursive(v, depth+1))
		}
	}
	return strings.Join(lines, "\n")
}
