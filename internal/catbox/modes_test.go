package catbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModeRegistryDialectGating(t *testing.T) {
	rfc := NewModeRegistry(Rfc1459)
	_, ok := rfc.ChannelMode('e')
	assert.False(t, ok, "ban-exception should not be registered under Rfc1459")

	r2810 := NewModeRegistry(Rfc2810)
	_, ok = r2810.ChannelMode('e')
	assert.True(t, ok, "ban-exception should be registered under Rfc2810")
	_, ok = r2810.Rank('h')
	assert.False(t, ok, "half-op should not be registered under Rfc2810")

	modern := NewModeRegistry(Modern)
	_, ok = modern.Rank('h')
	assert.True(t, ok, "half-op should be registered under Modern")
}

func TestModeRegistryCreationRankIsOp(t *testing.T) {
	r := NewModeRegistry(Modern)
	assert.Equal(t, byte('o'), r.CreationRank())
}

func TestModeRegistryRankAtLeast(t *testing.T) {
	r := NewModeRegistry(Modern)
	assert.True(t, r.RankAtLeast('o', 'v'))
	assert.True(t, r.RankAtLeast('o', 'h'))
	assert.False(t, r.RankAtLeast('v', 'o'))
}

func TestModeRegistryCanSetChannelMode(t *testing.T) {
	r := NewModeRegistry(Modern)
	opRanks := map[byte]struct{}{'o': {}}
	voiceRanks := map[byte]struct{}{'v': {}}

	assert.True(t, r.CanSetChannelMode('m', opRanks))
	assert.False(t, r.CanSetChannelMode('m', voiceRanks))
	assert.True(t, r.CanSetChannelMode('b', map[byte]struct{}{'h': {}}))
}
