package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStringKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abc  ", 10))
	assert.Equal(t, "ab", SanitizeString("abcdef", 2))
	// "é" is two bytes; cutting at 2 would split it.
	assert.Equal(t, "a", SanitizeString("aé", 2))
	assert.Equal(t, "unbounded", SanitizeString("unbounded", 0))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	assert.Empty(t, NormalizeEmail(string(long)))
}
