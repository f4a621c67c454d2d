package compiler

import "fmt"

// LexError reports a token the scanner could not classify.
type LexError struct {
	Offset  int
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at offset %d: %s", e.Offset, e.Message)
}

// ParseError reports a grammar rule that failed to match.
type ParseError struct {
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message)
}

// ResolveError reports a function call naming a function absent from the
// function table.
type ResolveError struct {
	Name string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("unknown function: %s", e.Name)
}

// RangeError reports a domain-level accessor (dN or lN) outside 0..9.
type RangeError struct {
	Accessor string
	Index    int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("domain level index out of range in %q: %d", e.Accessor, e.Index)
}

// BuildError reports a violation the SQL builder found while assembling
// layers, such as a count expression lifted into the innermost layer.
type BuildError struct {
	Message string
}

func (e *BuildError) Error() string {
	return "build error: " + e.Message
}

// PlaceholderError reports a "<name>" template placeholder still present
// in a compiled query. Compile itself never returns this — an
// unsubstituted placeholder is valid SQL text, not a compile failure.
// CheckPlaceholders constructs it for callers that execute the query and
// need to catch the placeholder before it reaches the warehouse.
type PlaceholderError struct {
	Placeholder string
}

func (e *PlaceholderError) Error() string {
	return fmt.Sprintf("unsubstituted placeholder: %s", e.Placeholder)
}
