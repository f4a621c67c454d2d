// Package testutil provides a YAML-fixture-driven golden test harness for
// the DSL compiler: each fixture names a source rule and the SQL (or
// error) compiling it is expected to produce.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"

	"github.com/dnsdga/lindef/compiler"
)

var stripHeredocRegex = regexp.MustCompilePOSIX("^\t*")

const timestampFormat = "2006-01-02 15:04:05"

// TestCase is one golden-fixture entry. Exactly one of ExpectedSQL or
// ExpectedError should be set.
type TestCase struct {
	Source        string  `yaml:"source"`
	Table         string  `yaml:"table"`
	Timestamp     string  `yaml:"timestamp"`
	WithGroupBy   bool    `yaml:"with_group_by"`
	ExpectedSQL   *string `yaml:"expected_sql"`
	ExpectedError *string `yaml:"expected_error"`
}

// ReadTests loads every YAML file matching pattern into a name -> TestCase
// map, erroring on duplicate names across files.
func ReadTests(pattern string) (map[string]TestCase, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	ret := map[string]TestCase{}
	testFileMap := map[string]string{}

	for _, file := range files {
		var cases map[string]*TestCase

		buf, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}

		dec := yaml.NewDecoder(bytes.NewReader(buf), yaml.DisallowUnknownField())
		if err := dec.Decode(&cases); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}

		for name, tc := range cases {
			if tc.ExpectedSQL != nil && tc.ExpectedError != nil {
				return nil, fmt.Errorf("%s: test case %q: only one of expected_sql/expected_error may be set", file, name)
			}
			if existing, ok := testFileMap[name]; ok {
				return nil, fmt.Errorf("duplicate test case name %q: defined in both %q and %q", name, existing, file)
			}
			testFileMap[name] = file
			ret[name] = *tc
		}
	}

	return ret, nil
}

// RunTest compiles the fixture's source and asserts the result against
// its expected_sql or expected_error.
func RunTest(t *testing.T, name string, tc TestCase) {
	t.Helper()

	timestamp := time.Date(2015, 8, 3, 0, 0, 0, 0, time.UTC)
	if tc.Timestamp != "" {
		ts, err := time.Parse(timestampFormat, tc.Timestamp)
		if err != nil {
			t.Fatalf("%s: invalid fixture timestamp: %v", name, err)
		}
		timestamp = ts
	}

	sql, err := compiler.Compile(StripHeredoc(tc.Source), compiler.Options{
		TableName:   tc.Table,
		Timestamp:   timestamp,
		WithGroupBy: tc.WithGroupBy,
	})

	if tc.ExpectedError != nil {
		if err == nil {
			t.Errorf("%s: expected error %q, got none (sql: %s)", name, *tc.ExpectedError, sql)
			return
		}
		assert.Equal(t, *tc.ExpectedError, err.Error(), "%s: error message mismatch", name)
		return
	}

	if err != nil {
		t.Fatalf("%s: unexpected compile error: %v", name, err)
	}
	if tc.ExpectedSQL != nil {
		assert.Equal(t, strings.TrimSpace(*tc.ExpectedSQL), strings.TrimSpace(sql), "%s: compiled SQL mismatch", name)
	}
}

// StripHeredoc trims a leading newline and any tabs at the very start of
// a YAML block-scalar fixture; tabs at the start of later lines are kept.
func StripHeredoc(heredoc string) string {
	heredoc = strings.TrimPrefix(heredoc, "\n")
	return stripHeredocRegex.ReplaceAllLiteralString(heredoc, "")
}
