package catbox

import "strings"

func cmdPrivmsg(s *Server, c *Conn, m Message) {
	deliverMessage(s, c, m, "PRIVMSG")
}

func cmdNotice(s *Server, c *Conn, m Message) {
	deliverMessage(s, c, m, "NOTICE")
}

func deliverMessage(s *Server, c *Conn, m Message, command string) {
	isNotice := command == "NOTICE"

	if len(m.Params) < 2 {
		if !isNotice {
			s.Reply.Numeric(c, ErrNoTextToSend, "No text to send")
		}
		return
	}
	text := m.Params[1]

	for _, target := range splitTargets(m.Params[0]) {
		if _, ok := s.Types.Lookup(target[0]); ok {
			deliverToChannel(s, c, target, text, command, isNotice)
			continue
		}
		deliverToUser(s, c, target, text, command, isNotice)
	}
}

func deliverToChannel(s *Server, c *Conn, target, text, command string, isNotice bool) {
	canon := canonicalizeChannel(s.Opts.Dialect, target)
	ch, ok := s.World.LookupChannel(canon)
	if !ok {
		if !isNotice {
			s.Reply.Numeric(c, ErrNoSuchChannel, target, "No such channel")
		}
		return
	}

	mem, isMember := ch.Members[c.ID]

	if ch.HasMode('n') && !isMember {
		if !isNotice {
			s.Reply.Numeric(c, ErrCannotSendToChan, target, "Cannot send to channel")
		}
		return
	}

	if ch.HasMode('m') {
		voiced := isMember && (mem.HasRank('v') || mem.HasRank('o'))
		if !voiced {
			if !isNotice {
				s.Reply.Numeric(c, ErrCannotSendToChan, target, "Cannot send to channel")
			}
			return
		}
	}

	if banned(ch, c) {
		allowed := false
		if isMember {
			allowed = true
		}
		for _, e := range ch.BanExceptions {
			if matchesMask(e.Mask, c.Usermask()) {
				allowed = true
			}
		}
		if !allowed {
			if !isNotice {
				s.Reply.Numeric(c, ErrCannotSendToChan, target, "Cannot send to channel")
			}
			return
		}
	}

	for _, member := range ch.Members {
		if member.Conn.ID == c.ID {
			continue
		}
		s.Reply.FromUser(member.Conn, c, command, target, text)
	}
}

func deliverToUser(s *Server, c *Conn, target, text, command string, isNotice bool) {
	dest, ok := s.World.LookupNick(canonicalizeNick(s.Opts.Dialect, target))
	if !ok {
		if !isNotice {
			s.Reply.Numeric(c, ErrNoSuchNick, target, "No such nick/channel")
		}
		return
	}

	if dest.Away != "" {
		if !isNotice {
			s.Reply.Numeric(c, RplAway, dest.Nick, dest.Away)
		}
	}

	s.Reply.FromUser(dest, c, command, target, text)
}

func cmdAway(s *Server, c *Conn, m Message) {
	if len(m.Params) == 0 || m.Params[0] == "" {
		c.Away = ""
		s.Reply.Numeric(c, RplUnAway, "You are no longer marked as being away")
		return
	}
	c.Away = m.Params[0]
	s.Reply.Numeric(c, RplNowAway, "You have been marked as being away")
}

func cmdWho(s *Server, c *Conn, m Message) {
	var mask string
	if len(m.Params) > 0 {
		mask = m.Params[0]
	}

	if mask != "" {
		if _, ok := s.Types.Lookup(mask[0]); ok {
			canon := canonicalizeChannel(s.Opts.Dialect, mask)
			if ch, ok := s.World.LookupChannel(canon); ok {
				for _, mem := range ch.Members {
					sendWhoLine(s, c, mem.Conn, ch.Name, s.Modes.RankSymbols(mem.Ranks))
				}
			}
			s.Reply.Numeric(c, "315", mask, "End of WHO list")
			return
		}
	}

	for _, conn := range s.World.Conns() {
		if !conn.Registered {
			continue
		}
		if mask != "" && !strings.Contains(strings.ToLower(conn.Nick), strings.ToLower(mask)) {
			continue
		}
		sendWhoLine(s, c, conn, "*", "")
	}
	s.Reply.Numeric(c, "315", mask, "End of WHO list")
}

func sendWhoLine(s *Server, requester, target *Conn, channel, prefix string) {
	flags := "H"
	if target.IsOper {
		flags += "*"
	}
	flags += prefix
	s.Reply.Numeric(requester, RplWhoReply, channel, target.User, target.Host, s.Opts.ServerName,
		target.Nick, flags, "0 "+target.RealName)
}

func cmdWhois(s *Server, c *Conn, m Message) {
	for _, nick := range splitTargets(m.Params[0]) {
		target, ok := s.World.LookupNick(canonicalizeNick(s.Opts.Dialect, nick))
		if !ok {
			s.Reply.Numeric(c, ErrNoSuchNick, nick, "No such nick/channel")
			continue
		}
		s.Reply.Numeric(c, RplWhoisUser, target.Nick, target.User, target.Host, "*", target.RealName)
		s.Reply.Numeric(c, RplWhoisServer, target.Nick, s.Opts.ServerName, s.Opts.ServerInfo)
		if target.IsOper {
			s.Reply.Numeric(c, RplWhoisOperator, target.Nick, "is an IRC operator")
		}
		if len(target.Channels) > 0 {
			var names []string
			for _, ch := range target.Channels {
				mem := ch.Members[target.ID]
				names = append(names, s.Modes.RankSymbols(mem.Ranks)+ch.Name)
			}
			s.Reply.Numeric(c, RplWhoisChannels, target.Nick, strings.Join(names, " "))
		}
	}
	s.Reply.Numeric(c, RplEndOfWhois, "End of WHOIS list")
}

func cmdWhowas(s *Server, c *Conn, m Message) {
	nick := m.Params[0]
	entries := s.World.Whowas(nick)
	if len(entries) == 0 {
		s.Reply.Numeric(c, ErrWasNoSuchNick, nick, "There was no such nickname")
	}
	for _, e := range entries {
		s.Reply.Numeric(c, RplWhoWasUser, e.Nick, e.User, e.Host, "*", e.RealName)
	}
	s.Reply.Numeric(c, RplEndOfWhoWas, nick, "End of WHOWAS")
}

func cmdIson(s *Server, c *Conn, m Message) {
	var present []string
	for _, nick := range m.Params {
		if _, ok := s.World.LookupNick(canonicalizeNick(s.Opts.Dialect, nick)); ok {
			present = append(present, nick)
		}
	}
	s.Reply.Numeric(c, "303", strings.Join(present, " "))
}

func cmdUserhost(s *Server, c *Conn, m Message) {
	var out []string
	for _, nick := range m.Params {
		target, ok := s.World.LookupNick(canonicalizeNick(s.Opts.Dialect, nick))
		if !ok {
			continue
		}
		away := "+"
		if target.Away != "" {
			away = "-"
		}
		out = append(out, target.Nick+"="+away+target.User+"@"+target.Host)
	}
	s.Reply.Numeric(c, RplUserHost, strings.Join(out, " "))
}
