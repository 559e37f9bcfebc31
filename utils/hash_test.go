package utils

import "testing"

var digestTests = []struct {
	in  string
	out string
}{
	{"", "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
	{"abc", "a9993e364706816aba3e25717850c26c9cd0d89d"},
}

func TestDigestOf(t *testing.T) {
	for _, test := range digestTests {
		if result := DigestOf([]byte(test.in)).String(); result != test.out {
			t.Errorf("DigestOf(%q)=%s; expected %s", test.in, result, test.out)
		}
	}
}
