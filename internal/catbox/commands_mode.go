package catbox

import "strings"

func cmdMode(s *Server, c *Conn, m Message) {
	target := m.Params[0]

	if _, ok := s.Types.Lookup(target[0]); ok {
		channelModeCommand(s, c, m)
		return
	}
	userModeCommand(s, c, m)
}

func userModeCommand(s *Server, c *Conn, m Message) {
	target := m.Params[0]
	if canonicalizeNick(s.Opts.Dialect, target) != canonicalizeNick(s.Opts.Dialect, c.Nick) {
		s.Reply.Numeric(c, ErrUsersDontMatch, "Cannot change mode for other users")
		return
	}

	if len(m.Params) == 1 {
		s.Reply.Numeric(c, RplUModeIs, "+"+userModeString(c))
		return
	}

	adding, letters := parseModeString(m.Params[1])
	applied := "+"
	if !adding {
		applied = "-"
	}
	var changed []byte
	for _, letter := range letters {
		def, ok := s.Modes.UserMode(letter)
		if !ok {
			s.Reply.Numeric(c, ErrUModeUnknownFlag, "Unknown MODE flag")
			continue
		}
		if def.OperOnly && adding && letter != 'o' {
			continue // can't self-grant oper-only flags except via OPER/the server
		}
		if letter == 'o' && adding {
			continue // oper status is only granted by OPER
		}
		if adding {
			if c.UserModes == nil {
				c.UserModes = map[byte]struct{}{}
			}
			c.UserModes[letter] = struct{}{}
		} else {
			delete(c.UserModes, letter)
			if letter == 'o' {
				c.IsOper = false
			}
		}
		changed = append(changed, letter)
	}
	if len(changed) > 0 {
		s.Reply.FromUser(c, c, "MODE", c.Nick, applied+string(changed))
	}
}

func userModeString(c *Conn) string {
	var b strings.Builder
	for letter := range c.UserModes {
		b.WriteByte(letter)
	}
	return b.String()
}

func channelModeCommand(s *Server, c *Conn, m Message) {
	canon := canonicalizeChannel(s.Opts.Dialect, m.Params[0])
	ch, ok := s.World.LookupChannel(canon)
	if !ok {
		s.Reply.Numeric(c, ErrNoSuchChannel, m.Params[0], "No such channel")
		return
	}

	if len(m.Params) == 1 {
		s.Reply.Numeric(c, RplChannelModeIs, ch.Name, "+"+channelModeString(ch))
		return
	}

	mem := ch.Members[c.ID]
	var setterRanks map[byte]struct{}
	if mem != nil {
		setterRanks = mem.Ranks
	}

	adding, letters := parseModeString(m.Params[1])
	args := m.Params[2:]
	argIdx := 0
	nextArg := func() (string, bool) {
		if argIdx >= len(args) {
			return "", false
		}
		v := args[argIdx]
		argIdx++
		return v, true
	}

	var addedChars, removedChars []byte
	var addedParams, removedParams []string

	for _, letter := range letters {
		cm, ok := s.Modes.ChannelMode(letter)
		_, isRank := s.Modes.Rank(letter)
		if !ok && !isRank {
			s.Reply.Numeric(c, ErrUnknownMode, string(letter), "is unknown mode char to me")
			continue
		}

		if !isRank && cm.IsList {
			arg, hasArg := peekArg(args, argIdx)
			if !hasArg {
				listChannelMode(s, c, ch, letter)
				continue
			}
			if !s.Modes.CanSetChannelMode(letter, setterRanks) {
				s.Reply.Numeric(c, ErrChanOpPrivsNeeded, ch.Name, "You're not channel operator")
				continue
			}
			argIdx++
			applyListMode(ch, letter, adding, arg, c.Nick)
			if adding {
				addedChars = append(addedChars, letter)
				addedParams = append(addedParams, arg)
			} else {
				removedChars = append(removedChars, letter)
				removedParams = append(removedParams, arg)
			}
			continue
		}

		canSet := s.Modes.CanSetChannelMode(letter, setterRanks)
		if isRank {
			// Rank changes (+o/+h/+v) require op.
			_, canSet = setterRanks['o']
		}
		if !canSet {
			s.Reply.Numeric(c, ErrChanOpPrivsNeeded, ch.Name, "You're not channel operator")
			continue
		}

		if isRank {
			arg, hasArg := nextArg()
			if !hasArg {
				continue
			}
			applyRankMode(s, ch, letter, adding, arg)
			if adding {
				addedChars = append(addedChars, letter)
				addedParams = append(addedParams, arg)
			} else {
				removedChars = append(removedChars, letter)
				removedParams = append(removedParams, arg)
			}
			continue
		}

		takesParam := (adding && cm.TakesParamOnSet) || (!adding && cm.TakesParamOnUnset)
		var arg string
		if takesParam {
			v, hasArg := nextArg()
			if !hasArg {
				continue
			}
			arg = v
		}

		if adding {
			ch.Modes[letter] = arg
			addedChars = append(addedChars, letter)
			if arg != "" {
				addedParams = append(addedParams, arg)
			}
		} else {
			delete(ch.Modes, letter)
			removedChars = append(removedChars, letter)
		}
	}

	echoModeChange(s, c, ch, addedChars, addedParams, removedChars, removedParams)
}

func peekArg(args []string, idx int) (string, bool) {
	if idx >= len(args) {
		return "", false
	}
	return args[idx], true
}

func applyListMode(ch *Channel, letter byte, adding bool, mask, setter string) {
	var list *[]*ListEntry
	switch letter {
	case 'b':
		list = &ch.Bans
	case 'e':
		list = &ch.BanExceptions
	case 'I':
		list = &ch.InviteExceptions
	default:
		return
	}
	if adding {
		*list = addListEntry(*list, mask, setter)
	} else {
		*list = removeListEntry(*list, mask)
	}
}

func applyRankMode(s *Server, ch *Channel, letter byte, adding bool, nick string) {
	canon := canonicalizeNick(s.Opts.Dialect, nick)
	for _, mem := range ch.Members {
		if canonicalizeNick(s.Opts.Dialect, mem.Conn.Nick) == canon {
			if adding {
				mem.Ranks[letter] = struct{}{}
			} else {
				delete(mem.Ranks, letter)
			}
			return
		}
	}
}

func listChannelMode(s *Server, c *Conn, ch *Channel, letter byte) {
	switch letter {
	case 'b':
		for _, e := range ch.Bans {
			s.Reply.Numeric(c, RplBanList, ch.Name, e.Mask, e.SetBy)
		}
		s.Reply.Numeric(c, RplEndOfBanList, ch.Name, "End of Channel Ban List")
	case 'e':
		for _, e := range ch.BanExceptions {
			s.Reply.Numeric(c, RplExceptList, ch.Name, e.Mask, e.SetBy)
		}
		s.Reply.Numeric(c, RplEndOfExceptList, ch.Name, "End of Channel Exception List")
	case 'I':
		for _, e := range ch.InviteExceptions {
			s.Reply.Numeric(c, RplInviteList, ch.Name, e.Mask, e.SetBy)
		}
		s.Reply.Numeric(c, RplEndOfInviteList, ch.Name, "End of Channel Invite List")
	}
}

func echoModeChange(s *Server, c *Conn, ch *Channel, addedChars []byte, addedParams []string, removedChars []byte, removedParams []string) {
	if len(addedChars) == 0 && len(removedChars) == 0 {
		return
	}
	params := []string{ch.Name}
	modeStr := ""
	if len(addedChars) > 0 {
		modeStr += "+" + string(addedChars)
	}
	if len(removedChars) > 0 {
		modeStr += "-" + string(removedChars)
	}
	params = append(params, modeStr)
	params = append(params, addedParams...)
	params = append(params, removedParams...)

	for _, mem := range ch.Members {
		s.Reply.FromUser(mem.Conn, c, "MODE", params...)
	}
}

func channelModeString(ch *Channel) string {
	var b strings.Builder
	for letter := range ch.Modes {
		b.WriteByte(letter)
	}
	return b.String()
}

// parseModeString returns every mode letter in s together with one polarity:
// that of the last '+' or '-' in s ('+' if neither appears). Polarity does
// not toggle per group, so a mixed string such as "+o-v" yields adding=false
// for both 'o' and 'v'.
func parseModeString(s string) (adding bool, letters []byte) {
	adding = true
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '+':
			adding = true
		case '-':
			adding = false
		default:
			letters = append(letters, s[i])
		}
	}
	return adding, letters
}
