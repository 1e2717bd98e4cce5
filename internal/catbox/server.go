package catbox

import (
	"time"

	"github.com/sirupsen/logrus"
)

// CommandDef is one entry of the command registry (C6): a handler plus the
// gates the dispatcher checks before invoking it.
type CommandDef struct {
	MinArgs              int
	RequiresRegistration bool
	OperOnly             bool
	// AllowedPreRegistration additionally permits this command before
	// registration completes (PASS/NICK/USER/CAP/QUIT).
	AllowedPreRegistration bool
	Handler                func(s *Server, c *Conn, m Message)
}

// Server is the orchestrator: it owns World, the mode/command registries,
// the replier, and the flags the reactor loop (C8) consults. It never does
// network I/O itself — Reactor does that and calls into Server to mutate
// World and enqueue replies.
type Server struct {
	Opts    *Options
	World   *World
	Modes   *ModeRegistry
	Types   *ChannelTypeRegistry
	Reply   *Replier
	Log     *logrus.Entry
	Metrics *Metrics

	Commands map[string]*CommandDef

	StartTime time.Time

	StopRequested    bool
	RestartRequested bool
	RehashRequested  bool

	// PendingClose holds connections a handler has torn down this
	// Dispatch, drained by the reactor after every iteration. A handler
	// that closes the connection it was invoked on relies on the same
	// queue as one that closes a different connection (KILL tearing down
	// its target) — the reactor has no other way to learn about the
	// latter, since World.RemoveConn already dropped it from World.Conns().
	PendingClose []*Conn
}

// QueueClose marks c for teardown and queues it for the reactor to close
// the real socket for. Any handler that ends a connection — including one
// other than the connection currently being dispatched, as KILL does —
// must call this instead of only setting c.Closing.
func (s *Server) QueueClose(c *Conn) {
	c.Closing = true
	s.PendingClose = append(s.PendingClose, c)
}

// NewServer builds a Server for the given Options, registering the command
// table for the active dialect (C6).
func NewServer(opts *Options, log *logrus.Entry, metrics *Metrics) *Server {
	modes := NewModeRegistry(opts.Dialect)
	types := NewChannelTypeRegistry()
	world := NewWorld(opts, modes, types)

	s := &Server{
		Opts:      opts,
		World:     world,
		Modes:     modes,
		Types:     types,
		Reply:     NewReplier(opts),
		Log:       log,
		Metrics:   metrics,
		StartTime: time.Now(),
	}
	s.registerCommands()
	return s
}

// registerCommands builds the C6 command table. Dialect gating is done by
// simply omitting entries the dialect doesn't support, per design note 9
// ("registering a different subset at startup").
func (s *Server) registerCommands() {
	s.Commands = map[string]*CommandDef{
		"PASS":    {MinArgs: 1, AllowedPreRegistration: true, Handler: cmdPass},
		"NICK":    {MinArgs: 1, AllowedPreRegistration: true, Handler: cmdNick},
		"USER":    {MinArgs: 4, AllowedPreRegistration: true, Handler: cmdUser},
		"QUIT":    {AllowedPreRegistration: true, Handler: cmdQuit},
		"PING":    {MinArgs: 1, Handler: cmdPing},
		"PONG":    {Handler: cmdPong},

		"JOIN":    {MinArgs: 1, RequiresRegistration: true, Handler: cmdJoin},
		"PART":    {MinArgs: 1, RequiresRegistration: true, Handler: cmdPart},
		"TOPIC":   {MinArgs: 1, RequiresRegistration: true, Handler: cmdTopic},
		"NAMES":   {RequiresRegistration: true, Handler: cmdNames},
		"LIST":    {RequiresRegistration: true, Handler: cmdList},
		"INVITE":  {MinArgs: 2, RequiresRegistration: true, Handler: cmdInvite},
		"KICK":    {MinArgs: 2, RequiresRegistration: true, Handler: cmdKick},
		"MODE":    {MinArgs: 1, RequiresRegistration: true, Handler: cmdMode},

		"PRIVMSG": {MinArgs: 1, RequiresRegistration: true, Handler: cmdPrivmsg},
		"NOTICE":  {MinArgs: 1, RequiresRegistration: true, Handler: cmdNotice},
		"AWAY":    {RequiresRegistration: true, Handler: cmdAway},
		"WHO":     {RequiresRegistration: true, Handler: cmdWho},
		"WHOIS":   {MinArgs: 1, RequiresRegistration: true, Handler: cmdWhois},
		"WHOWAS":  {MinArgs: 1, RequiresRegistration: true, Handler: cmdWhowas},
		"ISON":    {RequiresRegistration: true, Handler: cmdIson},
		"USERHOST": {RequiresRegistration: true, Handler: cmdUserhost},

		"OPER":    {MinArgs: 2, RequiresRegistration: true, Handler: cmdOper},
		"KILL":    {MinArgs: 1, RequiresRegistration: true, OperOnly: true, Handler: cmdKill},
		"KLINE":   {MinArgs: 1, RequiresRegistration: true, OperOnly: true, Handler: cmdKline},
		"UNKLINE": {MinArgs: 1, RequiresRegistration: true, OperOnly: true, Handler: cmdUnkline},
		"WALLOPS": {MinArgs: 1, RequiresRegistration: true, OperOnly: true, Handler: cmdWallops},
		"REHASH":  {RequiresRegistration: true, OperOnly: true, Handler: cmdRehash},
		"RESTART": {RequiresRegistration: true, OperOnly: true, Handler: cmdRestart},
		"DIE":     {RequiresRegistration: true, OperOnly: true, Handler: cmdDie},

		"MOTD":    {RequiresRegistration: true, Handler: cmdMotd},
		"LUSERS":  {RequiresRegistration: true, Handler: cmdLusers},
		"VERSION": {RequiresRegistration: true, Handler: cmdVersion},
		"TIME":    {RequiresRegistration: true, Handler: cmdTime},
		"ADMIN":   {RequiresRegistration: true, Handler: cmdAdmin},
		"INFO":    {RequiresRegistration: true, Handler: cmdInfo},
		"STATS":   {RequiresRegistration: true, Handler: cmdStats},
		"LINKS":   {RequiresRegistration: true, Handler: cmdLinks},

		// Reserved server-to-server extension points (spec.md §9 Open
		// Questions): CONNECT/SQUIT are accepted from an oper and SERVER from
		// any registered connection, for shape compatibility, but no TS6
		// bursting protocol is implemented.
		"CONNECT": {MinArgs: 1, RequiresRegistration: true, OperOnly: true, Handler: cmdConnectStub},
		"SQUIT":   {MinArgs: 1, RequiresRegistration: true, OperOnly: true, Handler: cmdSquitStub},
		"SERVER":  {MinArgs: 1, Handler: cmdServerStub},
		"ERROR":   {Handler: cmdErrorStub},

		// Required by every dialect (spec.md §4.6) but with no backing
		// subsystem in this server (no services framework, no host paging,
		// no multi-hop link); registered as stubs so they get a clean reply
		// instead of 421 Unknown command.
		"SERVICE": {MinArgs: 1, RequiresRegistration: true, Handler: cmdServiceStub},
		"SUMMON":  {MinArgs: 1, RequiresRegistration: true, Handler: cmdSummonStub},
		"TRACE":   {RequiresRegistration: true, Handler: cmdTraceStub},
	}

	if s.Opts.Dialect == Rfc2810 || s.Opts.Dialect == Modern {
		s.Commands["SERVLIST"] = &CommandDef{RequiresRegistration: true, Handler: cmdServlistStub}
		s.Commands["SQUERY"] = &CommandDef{MinArgs: 1, RequiresRegistration: true, Handler: cmdSqueryStub}
	}

	if s.Opts.Dialect == Modern {
		s.Commands["CAP"] = &CommandDef{MinArgs: 1, AllowedPreRegistration: true, Handler: cmdCap}
		s.Commands["KNOCK"] = &CommandDef{MinArgs: 1, RequiresRegistration: true, Handler: cmdKnock}
		s.Commands["LANGUAGE"] = &CommandDef{RequiresRegistration: true, Handler: cmdLanguageStub}
		s.Commands["SILENCE"] = &CommandDef{RequiresRegistration: true, Handler: cmdSilenceStub}
	}
}

// Dispatch runs the C6 gate sequence and, if all gates pass, invokes the
// handler. Gate failures emit the matching numeric and never call the
// handler (§4.6).
func (s *Server) Dispatch(c *Conn, m Message) {
	if m.IsNumeric {
		// Numeric replies received are only meaningful on a server link,
		// which this spec does not implement; silently ignore.
		return
	}

	def, ok := s.Commands[m.Command]
	if !ok {
		if c.Registered {
			s.Reply.Numeric(c, ErrUnknownCommand, m.Command, "Unknown command")
		} else {
			s.Reply.Numeric(c, ErrNotRegistered, "You have not registered")
		}
		return
	}

	if !c.Registered && !def.AllowedPreRegistration {
		s.Reply.Numeric(c, ErrNotRegistered, "You have not registered")
		return
	}

	if len(m.Params) < def.MinArgs {
		s.Reply.Numeric(c, ErrNeedMoreParams, m.Command, "Not enough parameters")
		return
	}

	if def.OperOnly && !c.IsOper {
		s.Reply.Numeric(c, ErrNoPrivileges, "Permission Denied- You're not an IRC operator")
		return
	}

	def.Handler(s, c, m)
}
