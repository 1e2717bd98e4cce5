package catbox

import (
	"strconv"
	"strings"
)

func cmdPass(s *Server, c *Conn, m Message) {
	if c.Registered {
		s.Reply.Numeric(c, ErrAlreadyRegistred, "Unauthorized command (already registered)")
		return
	}
	if s.Opts.ServerPass != "" && m.Params[0] != s.Opts.ServerPass {
		s.Reply.Raw(c, ":"+s.Opts.ServerName+" ERROR :Bad Password")
		s.World.RemoveConn(c)
		s.QueueClose(c)
		return
	}
	c.GotPass = true
}

func cmdNick(s *Server, c *Conn, m Message) {
	newNick := m.Params[0]

	if !isValidNick(s.Opts.Dialect, s.Opts.MaxNickLength, newNick) {
		s.Reply.Numeric(c, ErrErroneusNickname, newNick, "Erroneous nickname")
		return
	}

	canon := canonicalizeNick(s.Opts.Dialect, newNick)
	if existing, ok := s.World.LookupNick(canon); ok && existing != c {
		s.Reply.Numeric(c, ErrNicknameInUse, newNick, "Nickname is already in use")
		return
	}

	if !c.Registered {
		c.Nick = newNick
		c.GotNick = true
		maybeCompleteRegistration(s, c)
		return
	}

	// NICK change on an already-registered connection (L1): announce to
	// every channel the renamer shares membership with, plus themself.
	oldCanon := canonicalizeNick(s.Opts.Dialect, c.Nick)
	oldUsermask := c.Usermask()

	recipients := map[uint64]*Conn{c.ID: c}
	for _, ch := range c.Channels {
		for _, mem := range ch.Members {
			recipients[mem.Conn.ID] = mem.Conn
		}
	}

	s.World.RenameUser(c, oldCanon, canon, newNick)

	for _, r := range recipients {
		s.Reply.Raw(r, ":"+oldUsermask+" NICK :"+newNick)
	}
}

func cmdUser(s *Server, c *Conn, m Message) {
	if c.Registered {
		s.Reply.Numeric(c, ErrAlreadyRegistred, "Unauthorized command (already registered)")
		return
	}
	if !isValidUser(m.Params[0]) {
		s.Reply.Numeric(c, ErrNeedMoreParams, "USER", "Invalid user")
		return
	}
	c.User = m.Params[0]
	c.RealName = m.Params[len(m.Params)-1]
	c.GotUser = true
	maybeCompleteRegistration(s, c)
}

// maybeCompleteRegistration promotes a connection to registered once NICK,
// USER, and (if required) PASS have all landed and CAP negotiation (if any)
// has ended, per the Connection lifecycle state machine (§4.11).
func maybeCompleteRegistration(s *Server, c *Conn) {
	if c.Registered || !c.GotNick || !c.GotUser || c.Capping {
		return
	}
	if s.Opts.ServerPass != "" && !c.GotPass {
		return
	}

	canon := canonicalizeNick(s.Opts.Dialect, c.Nick)
	if existing, ok := s.World.LookupNick(canon); ok && existing != c {
		s.Reply.Numeric(c, ErrNicknameInUse, c.Nick, "Nickname is already in use")
		c.Nick = ""
		c.GotNick = false
		return
	}

	c.Registered = true
	s.World.RegisterNick(c, canon)

	s.Reply.Numeric(c, RplWelcome, "Welcome to the IRC Network "+c.Usermask())
	s.Reply.Numeric(c, RplYourHost, "Your host is "+s.Opts.ServerName+", running version "+s.Opts.Version)
	s.Reply.Numeric(c, RplCreated, "This server was created "+s.Opts.CreatedAt)
	s.Reply.Numeric(c, RplMyInfo, s.Opts.ServerName, s.Opts.Version, "o", "ovh")
	s.Reply.Numeric(c, RplISupport, "CHANTYPES=#", "NICKLEN="+strconv.Itoa(s.Opts.MaxNickLength), "are supported by this server")

	sendMotd(s, c)

	if len(c.UserModes) > 0 {
		modes := "+"
		for letter := range c.UserModes {
			modes += string(letter)
		}
		s.Reply.FromUser(c, c, "MODE", c.Nick, modes)
	}
}

func cmdQuit(s *Server, c *Conn, m Message) {
	reason := "Client Quit"
	if len(m.Params) > 0 {
		reason = m.Params[0]
	}
	quitConn(s, c, reason, true)
}

// quitConn fans the leave message out to every channel the connection was
// in, then tears it down (§4.6 PART/QUIT/KILL/ping-timeout). c need not be
// the connection currently being dispatched — KILL tears down its target,
// not the killer — so teardown always goes through Server.QueueClose rather
// than a bare Closing flag the reactor would only ever check against the
// dispatching connection.
func quitConn(s *Server, c *Conn, reason string, fromUser bool) {
	if c.Registered {
		notified := map[uint64]struct{}{}
		usermask := c.Usermask()
		for _, ch := range c.Channels {
			for _, mem := range ch.Members {
				if mem.Conn.ID == c.ID {
					continue
				}
				if _, done := notified[mem.Conn.ID]; done {
					continue
				}
				notified[mem.Conn.ID] = struct{}{}
				s.Reply.Raw(mem.Conn, ":"+usermask+" QUIT :"+reason)
			}
		}
	}
	s.Reply.Raw(c, ":"+s.Opts.ServerName+" ERROR :Closing Link: ("+reason+")")
	s.World.RemoveConn(c)
	s.QueueClose(c)
}

func cmdPing(s *Server, c *Conn, m Message) {
	s.Reply.FromServer(c, "PONG", s.Opts.ServerName, m.Params[0])
}

func cmdPong(s *Server, c *Conn, m Message) {
	c.LastAlive = c.LastAction
}

func cmdCap(s *Server, c *Conn, m Message) {
	sub := strings.ToUpper(m.Params[0])
	switch sub {
	case "LS":
		c.Capping = true
		s.Reply.FromServer(c, "CAP", targetNick(c), "LS", "")
	case "REQ":
		s.Reply.FromServer(c, "CAP", targetNick(c), "NAK", strings.Join(m.Params[1:], " "))
	case "END":
		c.Capping = false
		maybeCompleteRegistration(s, c)
	}
}

func sendMotd(s *Server, c *Conn) {
	if len(s.Opts.MOTDLines) == 0 {
		s.Reply.Numeric(c, ErrNoMotd, "MOTD File is missing")
		return
	}
	s.Reply.Numeric(c, RplMotdStart, "- "+s.Opts.ServerName+" Message of the day - ")
	for _, line := range s.Opts.MOTDLines {
		s.Reply.Numeric(c, RplMotd, "- "+line)
	}
	s.Reply.Numeric(c, RplEndOfMotd, "End of MOTD command")
}
