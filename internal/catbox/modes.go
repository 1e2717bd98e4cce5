package catbox

// ModeRegistry is the catalog of channel modes, channel ranks, and user
// modes recognized under the active dialect (C2). Registration happens
// once at startup, keyed by dialect, and is read-only afterward.
type ModeRegistry struct {
	channelModes map[byte]*ChannelMode
	ranks        map[byte]*Rank
	userModes    map[byte]*UserModeDef

	// rankOrder lists rank letters from highest to lowest privilege; the
	// first entry is the rank granted to a channel's creator on JOIN.
	rankOrder []byte
}

// ChannelMode describes one channel-mode letter: whether it takes a
// parameter on set/unset, whether it is list-valued (bans and friends),
// and who may change it.
type ChannelMode struct {
	Letter            byte
	TakesParamOnSet   bool
	TakesParamOnUnset bool
	IsList            bool
	// MinRank is not set by NewModeRegistry and not consulted by
	// CanSetChannelMode, which decides who may change a mode on its own.
	MinRank byte
}

// Rank is a per-channel status flag (op/half-op/voice).
type Rank struct {
	Letter byte // mode letter used in MODE, e.g. 'o'
	Symbol byte // NAMES/WHO prefix, e.g. '@'
	Name   string
}

// UserModeDef describes one user-mode letter.
type UserModeDef struct {
	Letter   byte
	OperOnly bool // only settable by/on an operator context (e.g. 'O')
}

// NewModeRegistry builds the mode/rank catalogs for the given dialect, per
// spec.md §4.2.
func NewModeRegistry(d Dialect) *ModeRegistry {
	r := &ModeRegistry{
		channelModes: map[byte]*ChannelMode{},
		ranks:        map[byte]*Rank{},
		userModes:    map[byte]*UserModeDef{},
	}

	always := []*ChannelMode{
		{Letter: 'b', IsList: true, TakesParamOnSet: true, TakesParamOnUnset: true},
		{Letter: 'i'},
		{Letter: 'k', TakesParamOnSet: true},
		{Letter: 'l', TakesParamOnSet: true},
		{Letter: 'm'},
		{Letter: 'n'},
		{Letter: 's'},
		{Letter: 'p'},
		{Letter: 't'},
	}
	for _, m := range always {
		r.channelModes[m.Letter] = m
	}

	r.ranks['o'] = &Rank{Letter: 'o', Symbol: '@', Name: "op"}
	r.ranks['v'] = &Rank{Letter: 'v', Symbol: '+', Name: "voice"}
	r.rankOrder = []byte{'o', 'v'}

	alwaysUser := []*UserModeDef{
		{Letter: 'O', OperOnly: true},
		{Letter: 'i'},
		{Letter: 'o', OperOnly: true},
		{Letter: 'r'},
		{Letter: 'w'},
	}
	for _, m := range alwaysUser {
		r.userModes[m.Letter] = m
	}

	if d == Rfc2810 || d == Modern {
		r.channelModes['e'] = &ChannelMode{Letter: 'e', IsList: true, TakesParamOnSet: true, TakesParamOnUnset: true}
		r.channelModes['I'] = &ChannelMode{Letter: 'I', IsList: true, TakesParamOnSet: true, TakesParamOnUnset: true}
	}

	if d == Modern {
		r.channelModes['c'] = &ChannelMode{Letter: 'c'}
		r.channelModes['T'] = &ChannelMode{Letter: 'T'}
		r.ranks['h'] = &Rank{Letter: 'h', Symbol: '%', Name: "half-op"}
		r.rankOrder = []byte{'o', 'h', 'v'}
	}

	return r
}

// ChannelMode looks up a channel-mode letter. ok is false if the letter is
// not registered under the active dialect.
func (r *ModeRegistry) ChannelMode(letter byte) (*ChannelMode, bool) {
	m, ok := r.channelModes[letter]
	return m, ok
}

// Rank looks up a rank by its mode letter.
func (r *ModeRegistry) Rank(letter byte) (*Rank, bool) {
	rk, ok := r.ranks[letter]
	return rk, ok
}

// UserMode looks up a user-mode letter.
func (r *ModeRegistry) UserMode(letter byte) (*UserModeDef, bool) {
	m, ok := r.userModes[letter]
	return m, ok
}

// CreationRank is the rank granted to a channel's creator on JOIN — always
// the highest-privilege rank registered (op).
func (r *ModeRegistry) CreationRank() byte {
	return r.rankOrder[0]
}

// RankAtLeast reports whether rank `have` is equal to or outranks `want`
// under the registry's privilege ordering (highest first). Both must be
// registered rank letters.
func (r *ModeRegistry) RankAtLeast(have, want byte) bool {
	haveIdx, wantIdx := -1, -1
	for i, l := range r.rankOrder {
		if l == have {
			haveIdx = i
		}
		if l == want {
			wantIdx = i
		}
	}
	if haveIdx == -1 || wantIdx == -1 {
		return false
	}
	return haveIdx <= wantIdx
}

// RankSymbols returns the NAMES-reply prefix for the highest rank present in
// the given rank set, or "" if none.
func (r *ModeRegistry) RankSymbols(ranks map[byte]struct{}) string {
	for _, l := range r.rankOrder {
		if _, ok := ranks[l]; ok {
			return string(r.ranks[l].Symbol)
		}
	}
	return ""
}

// CanSetChannelMode reports whether a member whose rank set is `setterRanks`
// (nil if not a member) may change channel mode `letter`. Bans/exceptions
// permit half-op in Modern; everything else requires op.
func (r *ModeRegistry) CanSetChannelMode(letter byte, setterRanks map[byte]struct{}) bool {
	cm, ok := r.channelModes[letter]
	if !ok {
		return false
	}
	if cm.IsList && (letter == 'b' || letter == 'e' || letter == 'I') {
		if _, ok := setterRanks['h']; ok {
			return true
		}
	}
	_, isOp := setterRanks['o']
	return isOp
}
