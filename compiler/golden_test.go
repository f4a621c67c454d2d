package compiler_test

import (
	"testing"

	"github.com/dnsdga/lindef/testutil"
)

func TestGoldenRules(t *testing.T) {
	cases, err := testutil.ReadTests("../testdata/*.yml")
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) == 0 {
		t.Fatal("no golden fixtures found")
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			testutil.RunTest(t, name, tc)
		})
	}
}
