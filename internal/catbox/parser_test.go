package catbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineTrailing(t *testing.T) {
	msg, err := ParseLine(":srv 001 alice :Welcome to IRC", 512)
	require.NoError(t, err)
	assert.Equal(t, "srv", msg.Prefix)
	assert.True(t, msg.IsNumeric)
	assert.Equal(t, "001", msg.Command)
	assert.Equal(t, []string{"alice", "Welcome to IRC"}, msg.Params)
}

func TestParseLineNoPrefix(t *testing.T) {
	msg, err := ParseLine("NICK alice", 512)
	require.NoError(t, err)
	assert.Equal(t, "", msg.Prefix)
	assert.False(t, msg.IsNumeric)
	assert.Equal(t, "NICK", msg.Command)
	assert.Equal(t, []string{"alice"}, msg.Params)
}

func TestParseLineCommandIsUppercased(t *testing.T) {
	msg, err := ParseLine("nick alice", 512)
	require.NoError(t, err)
	assert.Equal(t, "NICK", msg.Command)
}

func TestParseLineTooLong(t *testing.T) {
	long := make([]byte, 600)
	for i := range long {
		long[i] = 'a'
	}
	_, err := ParseLine(string(long), 512)
	assert.ErrorIs(t, err, ErrLineTooLong)
}

func TestParseLineEmptyTrailingArgument(t *testing.T) {
	msg, err := ParseLine("TOPIC #room :", 512)
	require.NoError(t, err)
	assert.Equal(t, []string{"#room", ""}, msg.Params)
}

// L3: parser round-trips through Encode with a leading ':' added to the
// trailing argument iff it contains a space or is empty.
func TestParserRoundTrip(t *testing.T) {
	cases := []Message{
		{Prefix: "srv", Command: "001", IsNumeric: true, Params: []string{"alice", "Welcome to IRC"}},
		{Command: "NICK", Params: []string{"alice"}},
		{Command: "TOPIC", Params: []string{"#room", ""}},
	}
	for _, m := range cases {
		line := m.Encode()
		reparsed, err := ParseLine(line, 512)
		require.NoError(t, err)
		assert.Equal(t, m.Prefix, reparsed.Prefix)
		assert.Equal(t, m.Command, reparsed.Command)
		assert.Equal(t, m.Params, reparsed.Params)
	}
}
