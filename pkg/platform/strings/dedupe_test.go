package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name   string
		input  [][]string
		expect []string
	}{
		{name: "nil input", input: nil, expect: nil},
		{name: "drops blanks", input: [][]string{{"", "  "}}, expect: nil},
		{name: "preserves order", input: [][]string{{" b ", "a", "b"}}, expect: []string{"b", "a"}},
		{name: "merges groups", input: [][]string{{"lib-a"}, {"lib-b", "lib-a"}}, expect: []string{"lib-a", "lib-b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, DedupeAndTrim(tt.input...))
		})
	}
}

func TestLogicalID(t *testing.T) {
	assert.Equal(t, "org-1", LogicalID("Organization/org-1"))
	assert.Equal(t, "org-1", LogicalID("Organization/org-1/_history/2"))
	assert.Equal(t, "org-1", LogicalID("org-1"))
}
