package catbox

func cmdOper(s *Server, c *Conn, m Message) {
	name, pass := m.Params[0], m.Params[1]
	want, ok := s.Opts.Opers[name]
	if !ok || want != pass {
		s.Reply.Numeric(c, ErrNoPrivileges, "Password incorrect")
		return
	}
	c.IsOper = true
	c.OperName = name
	if c.UserModes == nil {
		c.UserModes = map[byte]struct{}{}
	}
	c.UserModes['o'] = struct{}{}
	s.Reply.Numeric(c, RplYoureOper, "You are now an IRC operator")
	s.Reply.FromUser(c, c, "MODE", c.Nick, "+o")
}

func cmdKill(s *Server, c *Conn, m Message) {
	target, ok := s.World.LookupNick(canonicalizeNick(s.Opts.Dialect, m.Params[0]))
	if !ok {
		s.Reply.Numeric(c, ErrNoSuchNick, m.Params[0], "No such nick/channel")
		return
	}
	reason := "Killed"
	if len(m.Params) > 1 {
		reason = m.Params[1]
	}
	quitConn(s, target, "Killed ("+c.Nick+" ("+reason+"))", false)
}

func cmdKline(s *Server, c *Conn, m Message) {
	mask := m.Params[0]
	reason := "No reason given"
	if len(m.Params) > 1 {
		reason = m.Params[len(m.Params)-1]
	}
	userMask, hostMask := splitUserHostMask(mask)
	s.World.AddKLine(&KLine{UserMask: userMask, HostMask: hostMask, Reason: reason, SetBy: c.Nick})
	s.Reply.FromServer(c, "NOTICE", c.Nick, "Added KLINE for "+mask)
}

func cmdUnkline(s *Server, c *Conn, m Message) {
	userMask, hostMask := splitUserHostMask(m.Params[0])
	if s.World.RemoveKLine(userMask, hostMask) {
		s.Reply.FromServer(c, "NOTICE", c.Nick, "Removed KLINE for "+m.Params[0])
		return
	}
	s.Reply.FromServer(c, "NOTICE", c.Nick, "No such KLINE")
}

func splitUserHostMask(s string) (user, host string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '@' {
			return s[:i], s[i+1:]
		}
	}
	return "*", s
}

func cmdWallops(s *Server, c *Conn, m Message) {
	for _, conn := range s.World.Conns() {
		if conn.HasUserMode('w') {
			s.Reply.FromUser(conn, c, "WALLOPS", m.Params[0])
		}
	}
}

func cmdRehash(s *Server, c *Conn, m Message) {
	s.RehashRequested = true
	s.Reply.Numeric(c, RplRehashing, "ircd.conf", "Rehashing")
}

func cmdRestart(s *Server, c *Conn, m Message) {
	s.RestartRequested = true
	s.StopRequested = true
}

func cmdDie(s *Server, c *Conn, m Message) {
	s.StopRequested = true
}

func cmdKnock(s *Server, c *Conn, m Message) {
	canon := canonicalizeChannel(s.Opts.Dialect, m.Params[0])
	ch, ok := s.World.LookupChannel(canon)
	if !ok {
		s.Reply.Numeric(c, ErrNoSuchChannel, m.Params[0], "No such channel")
		return
	}
	for _, mem := range ch.Members {
		if mem.HasRank('o') {
			s.Reply.FromUser(mem.Conn, c, "NOTICE", ch.Name, "is requesting an invite")
		}
	}
}

// Reserved server-to-server extension points: CONNECT/SQUIT/SERVER are
// empty in the source this was distilled from (spec.md §9 Open Questions)
// and stay that way here. ERROR is only meaningful on a server link.

func cmdConnectStub(s *Server, c *Conn, m Message) {
	s.Reply.Numeric(c, ErrNoPrivileges, "Server linking is not implemented")
}

func cmdSquitStub(s *Server, c *Conn, m Message) {
	s.Reply.Numeric(c, ErrNoPrivileges, "Server linking is not implemented")
}

func cmdServerStub(s *Server, c *Conn, m Message) {
	quitConn(s, c, "Server linking is not implemented", false)
}

func cmdErrorStub(s *Server, c *Conn, m Message) {
	quitConn(s, c, "Bye", false)
}

// cmdServiceStub, cmdSummonStub, and cmdTraceStub answer the remaining
// always-required commands (spec.md §4.6) that this server has no backing
// functionality for: there is no services framework (SERVICE), no local
// SUMMON(8)-style host paging, and no multi-hop link to TRACE across. Each
// still needs a registry entry so a client sending one gets a clean numeric
// instead of 421 Unknown command.

func cmdServiceStub(s *Server, c *Conn, m Message) {
	s.Reply.Numeric(c, ErrNoPrivileges, "Services are not implemented")
}

func cmdSummonStub(s *Server, c *Conn, m Message) {
	s.Reply.Numeric(c, ErrSummonDisabled, "SUMMON has been disabled")
}

func cmdTraceStub(s *Server, c *Conn, m Message) {
	s.Reply.Numeric(c, RplTraceEnd, s.Opts.ServerName, s.Opts.Version)
}

// cmdServlistStub and cmdSqueryStub are the Rfc2810/Modern services-query
// commands; same reasoning as cmdServiceStub.

func cmdServlistStub(s *Server, c *Conn, m Message) {
	s.Reply.Numeric(c, RplServlistEnd, "*", "*", "End of service listing")
}

func cmdSqueryStub(s *Server, c *Conn, m Message) {
	s.Reply.Numeric(c, ErrNoSuchNick, m.Params[0], "No such service")
}

// cmdLanguageStub and cmdSilenceStub are Modern-only extensions this server
// doesn't maintain per-connection state for (language preference, a
// server-side ignore list); acknowledged with an empty/no-op reply rather
// than left unregistered. LANGUAGE has no assigned numeric in any dialect
// this server speaks, so it gets a plain NOTICE instead of a fabricated one.

func cmdLanguageStub(s *Server, c *Conn, m Message) {
	s.Reply.FromServer(c, "NOTICE", targetNick(c), "LANGUAGE en")
}

func cmdSilenceStub(s *Server, c *Conn, m Message) {
	s.Reply.Numeric(c, RplEndOfSilence, "End of SILENCE list")
}
