package catbox

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, dialect Dialect) *Server {
	t.Helper()
	opts := &Options{
		Dialect:              dialect,
		ServerName:           "irc.example.org",
		ServerInfo:           "test server",
		Version:              "catboxd-test",
		CreatedAt:            "today",
		MaxLineLength:        512,
		MaxNickLength:        9,
		MaxChannelsPerUser:   10,
		MaxChannelNameLength: 50,
		WhowasHistorySize:    100,
		WakeupTime:           2 * time.Second,
		PingTime:             time.Minute,
		DeadTime:             5 * time.Minute,
		Opers:                map[string]string{"admin": "hunter2"},
	}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewServer(opts, log.WithField("test", true), nil)
}

// connectAndRegister drives a connection through the registration handshake
// directly via Dispatch, without any real socket.
func connectAndRegister(t *testing.T, s *Server, nick, user, real string) *Conn {
	t.Helper()
	c := &Conn{ID: s.World.NextConnID(), Host: "host", GotPass: true}
	s.World.InsertConn(c)

	s.Dispatch(c, Message{Command: "NICK", Params: []string{nick}})
	s.Dispatch(c, Message{Command: "USER", Params: []string{user, "0", "*", real}})

	require.True(t, c.Registered, "connection should be registered")
	return c
}

func drain(c *Conn) []string {
	out := c.PendingOutput
	c.PendingOutput = nil
	return out
}

// Scenario 1: registration.
func TestScenarioRegistration(t *testing.T) {
	s := testServer(t, Modern)
	alice := connectAndRegister(t, s, "alice", "alice", "Alice")

	out := drain(alice)
	require.NotEmpty(t, out)
	assert.Contains(t, out[0], "001")
	assert.Contains(t, out[0], "Welcome to the IRC Network alice!alice@host")

	conn, ok := s.World.LookupNick("alice")
	assert.True(t, ok)
	assert.Same(t, alice, conn)
}

// Scenario 2: channel create & topic.
func TestScenarioChannelCreateAndTopic(t *testing.T) {
	s := testServer(t, Modern)
	alice := connectAndRegister(t, s, "alice", "alice", "Alice")
	drain(alice)

	s.Dispatch(alice, Message{Command: "JOIN", Params: []string{"#room"}})
	out := drain(alice)
	joined := false
	for _, l := range out {
		if strings.Contains(l, "JOIN") && strings.Contains(l, "#room") {
			joined = true
		}
	}
	assert.True(t, joined)

	var gotNoTopic, gotNames bool
	for _, l := range out {
		if strings.Contains(l, "331") {
			gotNoTopic = true
		}
		if strings.Contains(l, "353") && strings.Contains(l, "@alice") {
			gotNames = true
		}
	}
	assert.True(t, gotNoTopic)
	assert.True(t, gotNames)

	s.Dispatch(alice, Message{Command: "TOPIC", Params: []string{"#room", "hello"}})
	out = drain(alice)
	require.NotEmpty(t, out)
	assert.Contains(t, out[0], "TOPIC #room :hello")
}

// Scenario 3: moderation (+m, +v).
func TestScenarioModeration(t *testing.T) {
	s := testServer(t, Modern)
	alice := connectAndRegister(t, s, "alice", "alice", "Alice")
	bob := connectAndRegister(t, s, "bob", "bob", "Bob")
	drain(alice)
	drain(bob)

	s.Dispatch(alice, Message{Command: "JOIN", Params: []string{"#room"}})
	drain(alice)
	s.Dispatch(bob, Message{Command: "JOIN", Params: []string{"#room"}})
	drain(alice)
	drain(bob)

	s.Dispatch(alice, Message{Command: "MODE", Params: []string{"#room", "+m"}})
	drain(alice)
	drain(bob)

	s.Dispatch(bob, Message{Command: "PRIVMSG", Params: []string{"#room", "hi"}})
	out := drain(bob)
	require.NotEmpty(t, out)
	assert.Contains(t, out[len(out)-1], "404")

	s.Dispatch(alice, Message{Command: "MODE", Params: []string{"#room", "+v", "bob"}})
	drain(alice)
	drain(bob)

	s.Dispatch(bob, Message{Command: "PRIVMSG", Params: []string{"#room", "hi"}})
	aliceOut := drain(alice)
	bobOut := drain(bob)
	assert.Empty(t, bobOut)
	require.Len(t, aliceOut, 1)
	assert.Contains(t, aliceOut[0], "PRIVMSG #room :hi")
}

// Scenario 5: nick collision.
func TestScenarioNickCollision(t *testing.T) {
	s := testServer(t, Modern)
	alice := connectAndRegister(t, s, "alice", "alice", "Alice")
	drain(alice)

	bob := &Conn{ID: s.World.NextConnID(), Host: "host", GotPass: true}
	s.World.InsertConn(bob)
	s.Dispatch(bob, Message{Command: "NICK", Params: []string{"alice"}})

	out := drain(bob)
	require.NotEmpty(t, out)
	assert.Contains(t, out[0], "433")
	assert.Contains(t, out[0], "Nickname is already in use")
	assert.False(t, bob.Registered)
}

// L1: NICK round-trip.
func TestNickChangeRoundTrip(t *testing.T) {
	s := testServer(t, Modern)
	alice := connectAndRegister(t, s, "alice", "alice", "Alice")
	drain(alice)

	s.Dispatch(alice, Message{Command: "JOIN", Params: []string{"#room"}})
	drain(alice)

	s.Dispatch(alice, Message{Command: "NICK", Params: []string{"alice2"}})
	drain(alice)

	_, stillThere := s.World.LookupNick("alice")
	assert.False(t, stillThere)
	conn, ok := s.World.LookupNick("alice2")
	assert.True(t, ok)
	assert.Same(t, alice, conn)

	ch, _ := s.World.LookupChannel("#room")
	_, member := ch.Members[alice.ID]
	assert.True(t, member)
}

// L2: JOIN idempotence.
func TestJoinIdempotent(t *testing.T) {
	s := testServer(t, Modern)
	alice := connectAndRegister(t, s, "alice", "alice", "Alice")
	drain(alice)

	s.Dispatch(alice, Message{Command: "JOIN", Params: []string{"#room"}})
	drain(alice)

	ch, _ := s.World.LookupChannel("#room")
	memberCountBefore := len(ch.Members)

	s.Dispatch(alice, Message{Command: "JOIN", Params: []string{"#room"}})
	out := drain(alice)

	assert.Empty(t, out)
	assert.Equal(t, memberCountBefore, len(ch.Members))
}

// P3: channel with zero members is not reachable.
func TestChannelRemovedWhenEmpty(t *testing.T) {
	s := testServer(t, Modern)
	alice := connectAndRegister(t, s, "alice", "alice", "Alice")
	drain(alice)

	s.Dispatch(alice, Message{Command: "JOIN", Params: []string{"#room"}})
	drain(alice)
	s.Dispatch(alice, Message{Command: "PART", Params: []string{"#room"}})
	drain(alice)

	_, ok := s.World.LookupChannel("#room")
	assert.False(t, ok)
}

func TestQuitFansOutToChannelMembers(t *testing.T) {
	s := testServer(t, Modern)
	alice := connectAndRegister(t, s, "alice", "alice", "Alice")
	bob := connectAndRegister(t, s, "bob", "bob", "Bob")
	drain(alice)
	drain(bob)

	s.Dispatch(alice, Message{Command: "JOIN", Params: []string{"#room"}})
	drain(alice)
	s.Dispatch(bob, Message{Command: "JOIN", Params: []string{"#room"}})
	drain(alice)
	drain(bob)

	s.Dispatch(alice, Message{Command: "QUIT", Params: []string{"bye"}})
	bobOut := drain(bob)
	require.NotEmpty(t, bobOut)
	assert.Contains(t, bobOut[0], "QUIT :bye")

	_, ok := s.World.LookupNick("alice")
	assert.False(t, ok)
}
