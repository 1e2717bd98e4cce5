package catbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidNickRfcInclusiveRanges(t *testing.T) {
	// Regression for the half-open-range bug spec.md §9 calls out: z, Z, 9
	// must be accepted, not excluded.
	assert.True(t, isValidNickRfc(9, "z"))
	assert.True(t, isValidNickRfc(9, "Z"))
	assert.True(t, isValidNickRfc(9, "nick9"))
}

func TestIsValidNickModernRejectsReservedChars(t *testing.T) {
	assert.False(t, isValidNickModern(9, "a b"))
	assert.False(t, isValidNickModern(9, "a,b"))
	assert.False(t, isValidNickModern(9, "a!b"))
	assert.True(t, isValidNickModern(9, "a-b_c"))
}

func TestCanonicalizeNickFoldsDialectSpecificChars(t *testing.T) {
	assert.Equal(t, "[]\\~", canonicalizeNick(Rfc1459, "{}|^"))
	assert.Equal(t, "{}|^", canonicalizeNick(Modern, "{}|^"))
}

func TestIsValidChannel(t *testing.T) {
	types := NewChannelTypeRegistry()
	assert.True(t, isValidChannel(types, 50, "#room"))
	assert.False(t, isValidChannel(types, 50, "room"))
	assert.False(t, isValidChannel(types, 50, "#room with space"))
	assert.False(t, isValidChannel(types, 3, "#room"))
}

func TestWildcardMatch(t *testing.T) {
	assert.True(t, wildcardMatch("*!*@host.example", "alice!alice@host.example"))
	assert.False(t, wildcardMatch("*!*@other.example", "alice!alice@host.example"))
}
