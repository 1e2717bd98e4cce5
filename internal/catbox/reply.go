package catbox

import "strings"

// Replier builds outbound lines bearing the server prefix and appends them
// to a connection's pending-output buffer (C7). It performs no I/O.
type Replier struct {
	opts *Options
}

// NewReplier builds a Replier bound to the given Options (for server_name
// and max_line_length).
func NewReplier(opts *Options) *Replier {
	return &Replier{opts: opts}
}

// targetNick is the nick field a numeric reply addresses: the connection's
// nick (including one accepted by NICK before registration completes), or
// "*" while it has none.
func targetNick(c *Conn) string {
	if c.Nick == "" {
		return "*"
	}
	return c.Nick
}

func (r *Replier) encode(prefix, command string, params []string) string {
	var b strings.Builder
	b.WriteByte(':')
	b.WriteString(prefix)
	b.WriteByte(' ')
	b.WriteString(command)
	for i, p := range params {
		b.WriteByte(' ')
		// The Reply Formatter always marks its final argument as trailing
		// text with a leading ':' (matching every numeric/command reply
		// template in §6), even when the parser's own round-trip rule
		// (L3) would treat a single unspaced word as not strictly needing
		// one.
		if i == len(params)-1 {
			b.WriteByte(':')
		}
		b.WriteString(p)
	}
	line := b.String()
	// Bound by max_line_length including CR/LF (P5).
	limit := r.opts.MaxLineLength - 2
	if limit > 0 && len(line) > limit {
		line = line[:limit]
	}
	return line
}

// Numeric queues a numeric reply to c. params is everything after the
// target nick.
func (r *Replier) Numeric(c *Conn, code string, params ...string) {
	all := append([]string{targetNick(c)}, params...)
	c.PendingOutput = append(c.PendingOutput, r.encode(r.opts.ServerName, code, all))
}

// FromServer queues a server-originated command line to c.
func (r *Replier) FromServer(c *Conn, command string, params ...string) {
	c.PendingOutput = append(c.PendingOutput, r.encode(r.opts.ServerName, command, params))
}

// FromUser queues a line to c as if relayed from source (prefix = source's
// usermask).
func (r *Replier) FromUser(c *Conn, source *Conn, command string, params ...string) {
	c.PendingOutput = append(c.PendingOutput, r.encode(source.Usermask(), command, params))
}

// Raw queues a pre-built line (without CR/LF, which the reactor appends)
// verbatim and without length bounding; used for the hand-assembled NICK,
// QUIT and ERROR lines.
func (r *Replier) Raw(c *Conn, line string) {
	c.PendingOutput = append(c.PendingOutput, line)
}
