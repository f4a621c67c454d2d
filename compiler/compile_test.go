package compiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTimestamp() time.Time {
	return time.Date(2015, 8, 3, 0, 0, 0, 0, time.UTC)
}

func compileDefault(t *testing.T, source string, withGroupBy bool) (string, error) {
	t.Helper()
	return Compile(source, Options{
		Timestamp:   testTimestamp(),
		WithGroupBy: withGroupBy,
	})
}

// S1: a single predicate set with no counts compiles to a single flat scan.
func TestCompile_SinglePredicateSet(t *testing.T) {
	sql, err := compileDefault(t, `{domain = 'example.com'}`, false)
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM hplDNSReplies")
	assert.Contains(t, sql, "WHERE\n")
	assert.Contains(t, sql, "request = 'example.com'")
	assert.NotContains(t, sql, "layer_0")
}

// S2: a count expression in the second predicate set lifts into its own
// nested sublayer wrap, carrying the window function's alias, distinct
// from the sublayer wrapping the WHERE clause that references it.
func TestCompile_CountExprLiftsIntoOwnWrap(t *testing.T) {
	sql, err := compileDefault(t, `{domain = 'example.com'}, {[dst|true] >= 5}`, false)
	require.NoError(t, err)
	assert.Contains(t, sql, "COUNT(true OR NULL) OVER(PARTITION BY dst)")
	assert.Contains(t, sql, "AS number_0")
	assert.Contains(t, sql, "number_0 >= 5")
	assert.Contains(t, sql, "layer_0")
}

// S3: a count expression with a time interval emits the RANGE BETWEEN
// window framing clause.
func TestCompile_CountExprWithInterval(t *testing.T) {
	sql, err := compileDefault(t, `{domain = 'example.com'}, {[dst:1h|true] >= 5}`, false)
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY timestamp RANGE BETWEEN INTERVAL '1 hour 0 minute' PRECEDING AND INTERVAL '1 hour 0 minute' FOLLOWING")
}

// S4: a for-expression unrolls into a sum of CASE WHEN terms, one per
// enumeration member, with the loop variable bound to that member.
func TestCompile_ForExprUnrolls(t *testing.T) {
	sql, err := compileDefault(t, `{|suf in 'com','net': d0 = suf| >= 1}`, false)
	require.NoError(t, err)
	assert.Contains(t, sql, "CASE WHEN (d0 = 'com') THEN 1 ELSE 0 END")
	assert.Contains(t, sql, "CASE WHEN (d0 = 'net') THEN 1 ELSE 0 END")
}

// with_group_by wraps the whole query in an outer client-frequency
// aggregation.
func TestCompile_WithGroupBy(t *testing.T) {
	sql, err := compileDefault(t, `{domain = 'example.com'}`, true)
	require.NoError(t, err)
	assert.Contains(t, sql, "SELECT dst, COUNT(dst) AS freq")
	assert.Contains(t, sql, "layer_group")
	assert.Contains(t, sql, "GROUP BY dst")
}

// S6: a count lifted all the way to the root layer (the lowest layer
// carrying more than one sublayer) is rejected for performance reasons.
func TestCompile_CountInRootLayerRejected(t *testing.T) {
	_, err := compileDefault(t, `{[dst|true] >= 5}`, false)
	require.Error(t, err)
	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
}

func TestCompile_DomainLevelAccessorOutOfRange(t *testing.T) {
	_, err := compileDefault(t, `{d99 = 'x'}`, false)
	require.Error(t, err)
	var rangeErr *RangeError
	require.ErrorAs(t, err, &rangeErr)
}

func TestCompile_UnknownFunction(t *testing.T) {
	_, err := compileDefault(t, `{bogus(domain, 'x') = true}`, false)
	require.Error(t, err)
	var resolveErr *ResolveError
	require.ErrorAs(t, err, &resolveErr)
}

func TestCompile_NumericRangeEnumeration(t *testing.T) {
	sql, err := compileDefault(t, `{d0 in 1,...,3}`, false)
	require.NoError(t, err)
	assert.Contains(t, sql, "d0 IN (1,2,3)")
}

func TestCompile_UnterminatedStringIsLexError(t *testing.T) {
	_, err := compileDefault(t, `{domain = 'unterminated}`, false)
	require.Error(t, err)
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
}

func TestCompile_TrailingGarbageIsParseError(t *testing.T) {
	_, err := compileDefault(t, `{domain = 'x'} garbage`, false)
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

// The three rules below are the canonical DGA detection rules and
// exercise match(), count/count-with-interval, for-expressions, numeric
// ranges and nested in-expressions together.
const bedepRule = `
{
    match(domain, '^[a-z]{11,16}\.com$'),
    timestamp >= t0 - 2h,
    timestamp <= t0
},
{
    [dst:1h|match(d1,'[0-9]')] / [dst:1h|true] >= 0.2,
    [dst:60m|true] >= 18
}
`

const confickerABRule = `
{match(domain, '^[a-z]{5,12}\.(biz|com|info|net|org)$')},
{
    [dst|true] >= 25,
    |i in 5,...,12: [dst|l1=i]>=1| >= 5,
    |suffix in 'com','biz','info','net','org': [dst|d0=suffix]>=1| >= 4,
    [dst|l1=5 and d0 in 'com','info','net','org'] >= 1,
    [dst|l1=12 and d0 in 'com','info','net','org'] = 0
}
`

const elephantRule = `
{match(domain, '^[a-f0-9]{8}\.(com|info|net)$')},
{
    [dst| |suffix in 'com','info','net': [dst,d1|d0=suffix]>=1| >= 2 ] >= 16
}
`

func TestCompile_BedepRuleCompiles(t *testing.T) {
	sql, err := compileDefault(t, bedepRule, true)
	require.NoError(t, err)
	assert.Contains(t, sql, "REGEXP_INSTR(request,'^[a-z]{11,16}\\.com$')>0")
	assert.Contains(t, sql, "layer_group")
}

func TestCompile_ConfickerABRuleCompiles(t *testing.T) {
	sql, err := compileDefault(t, confickerABRule, true)
	require.NoError(t, err)
	assert.Contains(t, sql, "CASE WHEN (number_")
	assert.Contains(t, sql, "d0 IN (")
}

func TestCompile_ElephantRuleCompiles(t *testing.T) {
	sql, err := compileDefault(t, elephantRule, true)
	require.NoError(t, err)
	assert.Contains(t, sql, "COUNT(")
	assert.Contains(t, sql, "layer_group")
}
