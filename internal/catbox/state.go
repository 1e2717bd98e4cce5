package catbox

import (
	"strings"
	"time"
)

// Member is a (connection, channel) edge: a rank set subset of the ranks the
// active dialect permits (I4: at most one copy of each rank).
type Member struct {
	Conn  *Conn
	Ranks map[byte]struct{}
}

// HasRank reports whether the member currently holds the given rank letter.
func (m *Member) HasRank(letter byte) bool {
	_, ok := m.Ranks[letter]
	return ok
}

// ListEntry is one entry of a list-valued channel mode (ban, ban-exception,
// invite-exception); standing invites are kept in Channel.Invites instead.
// I6: deduplicated by Mask.
type ListEntry struct {
	Mask  string
	SetBy string
	SetAt time.Time
}

// Channel is a named multi-user room (§3).
type Channel struct {
	Name     string
	Type     *ChannelSemantics
	Created  time.Time
	Topic    string
	TopicSetBy string
	TopicSetAt time.Time

	// Modes holds the parameter (if any) for each active channel-mode
	// letter that is not a list mode. Presence in the map means the mode is
	// set; the value is the parameter or "" for parameterless modes.
	Modes map[byte]string

	Bans             []*ListEntry
	BanExceptions    []*ListEntry
	InviteExceptions []*ListEntry
	Invites          map[uint64]struct{} // conn IDs with a standing INVITE

	// Members keyed by connection ID.
	Members map[uint64]*Member
}

// HasMode reports whether a non-list channel mode is currently set.
func (c *Channel) HasMode(letter byte) bool {
	_, ok := c.Modes[letter]
	return ok
}

func addListEntry(list []*ListEntry, mask, setter string) []*ListEntry {
	for _, e := range list {
		if e.Mask == mask {
			return list // I6: already present
		}
	}
	return append(list, &ListEntry{Mask: mask, SetBy: setter, SetAt: time.Now()})
}

func removeListEntry(list []*ListEntry, mask string) []*ListEntry {
	out := list[:0]
	for _, e := range list {
		if e.Mask != mask {
			out = append(out, e)
		}
	}
	return out
}

// matchesMask reports whether usermask matches an IRC-style wildcard mask
// using '*' and '?'.
func matchesMask(mask, usermask string) bool {
	return wildcardMatch(strings.ToLower(mask), strings.ToLower(usermask))
}

func wildcardMatch(pattern, s string) bool {
	// Classic DP-free recursive glob match restricted to '*'/'?'; inputs here
	// are short (nick!user@host masks), so this is cheap.
	if pattern == "" {
		return s == ""
	}
	if pattern[0] == '*' {
		if wildcardMatch(pattern[1:], s) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if wildcardMatch(pattern[1:], s[i+1:]) {
				return true
			}
		}
		return false
	}
	if s == "" {
		return false
	}
	if pattern[0] == '?' || pattern[0] == s[0] {
		return wildcardMatch(pattern[1:], s[1:])
	}
	return false
}

// WhowasEntry is one row of the bounded WHOWAS history ring (§4.6, §5).
type WhowasEntry struct {
	Nick     string
	User     string
	Host     string
	RealName string
	QuitTime time.Time
}

// KLine is a connection-ban entry (user-mask, host-mask, reason), maintained
// by KLINE/UNKLINE and listed by STATS k. No connection is checked against
// the list: neither accept nor registration calls MatchKLine.
type KLine struct {
	UserMask string
	HostMask string
	Reason   string
	SetBy    string
	SetAt    time.Time
}

// Conn is a connection record: a socket handle plus every piece of
// per-connection state described in spec.md §3. Identity is by ID (standing
// in for the socket handle); the derived usermask is computed on demand by
// Usermask().
type Conn struct {
	ID         uint64
	RemoteAddr string
	Host       string
	IsListen   bool

	// Registration handshake flags/state (§4.11).
	GotPass  bool
	GotNick  bool
	GotUser  bool
	Registered bool
	Capping  bool // CAP negotiation in progress (Modern only)

	Nick     string // canonical-cased as received; index key is canonicalized separately
	User     string
	RealName string

	UserModes map[byte]struct{}

	Away string

	IsOper   bool
	OperName string

	Channels map[string]*Channel // canonical channel name -> channel

	LastAction time.Time
	LastAlive  time.Time
	LastPing   time.Time

	Closing bool

	// Pending output, appended to by the Reply Formatter (C7), drained by
	// the reactor (C8). Never read/written by anything else.
	PendingOutput []string
}

// Usermask computes nick!user@host on demand (§3: "recomputed on demand").
func (c *Conn) Usermask() string {
	return c.Nick + "!" + c.User + "@" + c.Host
}

// HasUserMode reports whether a user mode is currently set.
func (c *Conn) HasUserMode(letter byte) bool {
	_, ok := c.UserModes[letter]
	return ok
}

// World is the live graph (C4): connections, users-by-nick,
// channels-by-name, and the cross-links between them. All mutation goes
// through the typed operations below, each of which restores I1-I7 before
// returning. The reactor is the sole owner and caller, single-threaded, so
// no lock guards these maps (§5).
type World struct {
	Opts  *Options
	Modes *ModeRegistry
	Types *ChannelTypeRegistry

	conns    map[uint64]*Conn
	nicks    map[string]*Conn // canonical nick -> conn
	channels map[string]*Channel

	whowas []WhowasEntry

	klines []*KLine

	nextID uint64
}

// NewWorld constructs an empty World.
func NewWorld(opts *Options, modes *ModeRegistry, types *ChannelTypeRegistry) *World {
	return &World{
		Opts:     opts,
		Modes:    modes,
		Types:    types,
		conns:    map[uint64]*Conn{},
		nicks:    map[string]*Conn{},
		channels: map[string]*Channel{},
	}
}

// NextConnID issues a fresh connection handle.
func (w *World) NextConnID() uint64 {
	w.nextID++
	return w.nextID
}

// InsertConn adds a newly accepted connection to the World (I7: unregistered,
// unindexed until registration completes).
func (w *World) InsertConn(c *Conn) {
	w.conns[c.ID] = c
}

// Conns returns the live connection table. Callers must treat it read-only.
func (w *World) Conns() map[uint64]*Conn {
	return w.conns
}

// Channels returns the live channel table. Callers must treat it read-only.
func (w *World) Channels() map[string]*Channel {
	return w.channels
}

// LookupNick finds a registered connection by nickname (I1).
func (w *World) LookupNick(canonNick string) (*Conn, bool) {
	c, ok := w.nicks[canonNick]
	return c, ok
}

// LookupChannel finds a channel by canonical name.
func (w *World) LookupChannel(canonName string) (*Channel, bool) {
	c, ok := w.channels[canonName]
	return c, ok
}

// RegisterNick claims the nick index entry for a connection completing
// registration. Caller must have already verified availability.
func (w *World) RegisterNick(c *Conn, canonNick string) {
	w.nicks[canonNick] = c
}

// RenameUser atomically swaps the nick index entry: either both the index
// and c.Nick change, or neither does (§4.4).
func (w *World) RenameUser(c *Conn, oldCanon, newCanon, newNick string) {
	delete(w.nicks, oldCanon)
	w.nicks[newCanon] = c
	c.Nick = newNick
}

// RemoveConn tears a connection down: removes it from every channel it was
// in (I3 may free channels), clears the nick index, pushes a WHOWAS record
// if it was registered, and removes it from the connection table. It does
// not touch the socket; the caller (reactor) does that.
func (w *World) RemoveConn(c *Conn) {
	for name, ch := range c.Channels {
		w.removeMemberFromChannel(ch, c)
		if len(ch.Members) == 0 {
			delete(w.channels, name)
		}
	}
	c.Channels = nil

	if c.Registered {
		canon := canonicalizeNick(w.Opts.Dialect, c.Nick)
		if existing, ok := w.nicks[canon]; ok && existing == c {
			delete(w.nicks, canon)
		}
		w.pushWhowas(c)
	}

	delete(w.conns, c.ID)
}

func (w *World) pushWhowas(c *Conn) {
	entry := WhowasEntry{
		Nick:     c.Nick,
		User:     c.User,
		Host:     c.Host,
		RealName: c.RealName,
		QuitTime: time.Now(),
	}
	w.whowas = append(w.whowas, entry)
	if len(w.whowas) > w.Opts.WhowasHistorySize {
		w.whowas = w.whowas[len(w.whowas)-w.Opts.WhowasHistorySize:]
	}
}

// Whowas returns the most recent entries for a nick (case-insensitive),
// most recent first, per spec.md §4.6 (bounded history ring).
func (w *World) Whowas(nick string) []WhowasEntry {
	canon := canonicalizeNick(w.Opts.Dialect, nick)
	var out []WhowasEntry
	for i := len(w.whowas) - 1; i >= 0; i-- {
		if canonicalizeNick(w.Opts.Dialect, w.whowas[i].Nick) == canon {
			out = append(out, w.whowas[i])
		}
	}
	return out
}

// GetOrCreateChannel returns the channel by canonical name, creating it (and
// reporting created=true) if absent.
func (w *World) GetOrCreateChannel(canonName, displayName string) (ch *Channel, created bool) {
	if existing, ok := w.channels[canonName]; ok {
		return existing, false
	}
	sem, _ := w.Types.Lookup(displayName[0])
	ch = &Channel{
		Name:    displayName,
		Type:    sem,
		Created: time.Now(),
		Modes:   map[byte]string{},
		Invites: map[uint64]struct{}{},
		Members: map[uint64]*Member{},
	}
	w.channels[canonName] = ch
	return ch, true
}

// Join adds a connection as a member of a channel with the given initial
// rank set (possibly empty), mirroring the edge on both sides (I2).
func (w *World) Join(c *Conn, canonName string, ch *Channel, initialRank byte) {
	ranks := map[byte]struct{}{}
	if initialRank != 0 {
		ranks[initialRank] = struct{}{}
	}
	ch.Members[c.ID] = &Member{Conn: c, Ranks: ranks}
	if c.Channels == nil {
		c.Channels = map[string]*Channel{}
	}
	c.Channels[canonName] = ch
}

// Part removes a connection's membership in a channel, freeing the channel
// if it becomes empty (I3). Returns true if the channel was removed.
func (w *World) Part(c *Conn, canonName string, ch *Channel) bool {
	w.removeMemberFromChannel(ch, c)
	delete(c.Channels, canonName)
	if len(ch.Members) == 0 {
		delete(w.channels, canonName)
		return true
	}
	return false
}

func (w *World) removeMemberFromChannel(ch *Channel, c *Conn) {
	delete(ch.Members, c.ID)
}

// SharedChannels returns every channel both connections are a member of.
func (w *World) SharedChannels(a, b *Conn) []*Channel {
	var out []*Channel
	for name, ch := range a.Channels {
		if _, ok := b.Channels[name]; ok {
			out = append(out, ch)
		}
	}
	return out
}

// AddKLine appends a KLine entry (KLINE).
func (w *World) AddKLine(k *KLine) {
	w.klines = append(w.klines, k)
}

// RemoveKLine removes a matching KLine entry (UNKLINE). Returns true if one
// was removed.
func (w *World) RemoveKLine(userMask, hostMask string) bool {
	for i, k := range w.klines {
		if k.UserMask == userMask && k.HostMask == hostMask {
			w.klines = append(w.klines[:i], w.klines[i+1:]...)
			return true
		}
	}
	return false
}

// MatchKLine reports whether a user@host is blocked by any KLine, and if so
// returns the matching entry's reason.
func (w *World) MatchKLine(user, host string) (string, bool) {
	for _, k := range w.klines {
		if matchesMask(k.UserMask, user) && matchesMask(k.HostMask, host) {
			return k.Reason, true
		}
	}
	return "", false
}

// KLines returns the live KLine list, read-only.
func (w *World) KLines() []*KLine {
	return w.klines
}
