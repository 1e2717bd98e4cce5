package catbox

import (
	"strconv"
	"time"
)

func cmdMotd(s *Server, c *Conn, m Message) {
	sendMotd(s, c)
}

func cmdLusers(s *Server, c *Conn, m Message) {
	snap := Stats(s.World)
	s.Reply.Numeric(c, RplLUserClient, "There are "+strconv.Itoa(snap.Users)+" users and "+
		strconv.Itoa(snap.Invisible)+" invisible on "+strconv.Itoa(snap.Servers)+" server(s)")
	s.Reply.Numeric(c, RplLUserOp, strconv.Itoa(snap.Opers), "operator(s) online")
	s.Reply.Numeric(c, RplLUserUnknown, strconv.Itoa(snap.Unknown), "unknown connection(s)")
	s.Reply.Numeric(c, RplLUserChannels, strconv.Itoa(snap.Channels), "channels formed")
	s.Reply.Numeric(c, RplLUserMe, "I have "+strconv.Itoa(snap.Users)+" clients and "+strconv.Itoa(snap.Servers)+" server(s)")

	if s.Metrics != nil {
		s.Metrics.Observe(snap)
	}
}

func cmdVersion(s *Server, c *Conn, m Message) {
	s.Reply.Numeric(c, RplVersion, s.Opts.Version, s.Opts.ServerName, s.Opts.Dialect.String())
}

func cmdTime(s *Server, c *Conn, m Message) {
	s.Reply.Numeric(c, RplTime, s.Opts.ServerName, time.Now().Format(time.RFC1123))
}

func cmdAdmin(s *Server, c *Conn, m Message) {
	s.Reply.Numeric(c, RplAdminMe, s.Opts.ServerName, "Administrative info about "+s.Opts.ServerName)
	s.Reply.Numeric(c, RplAdminLoc1, s.Opts.ServerInfo)
	s.Reply.Numeric(c, RplAdminLoc2, s.Opts.ServerInfo)
	s.Reply.Numeric(c, RplAdminEmail, "admin@"+s.Opts.ServerName)
}

func cmdInfo(s *Server, c *Conn, m Message) {
	s.Reply.Numeric(c, RplInfo, s.Opts.ServerInfo)
	s.Reply.Numeric(c, RplInfo, "Running version "+s.Opts.Version)
	s.Reply.Numeric(c, RplEndOfInfo, "End of INFO list")
}

func cmdStats(s *Server, c *Conn, m Message) {
	var query string
	if len(m.Params) > 0 {
		query = m.Params[0]
	}
	switch query {
	case "u":
		s.Reply.Numeric(c, RplStatsUptime, "Server Up "+time.Since(s.StartTime).String())
	case "k":
		for _, k := range s.World.KLines() {
			s.Reply.Numeric(c, "216", k.UserMask+"@"+k.HostMask, k.SetBy, k.Reason)
		}
	}
	s.Reply.Numeric(c, RplEndOfStats, query, "End of STATS report")
}

func cmdLinks(s *Server, c *Conn, m Message) {
	s.Reply.Numeric(c, RplLinks, s.Opts.ServerName, s.Opts.ServerName, "0 "+s.Opts.ServerInfo)
	s.Reply.Numeric(c, RplEndOfLinks, "*", "End of LINKS list")
}
