package catbox

import "strings"

// canonicalizeNick converts a nick to its canonical (unique) form. Under
// Rfc1459/Rfc2810, `{}|^` case-fold to `[]\~`; Modern just lowercases.
func canonicalizeNick(d Dialect, n string) string {
	n = strings.ToLower(n)
	if d == Modern {
		return n
	}
	replacer := strings.NewReplacer("{", "[", "}", "]", "|", "\\", "^", "~")
	return replacer.Replace(n)
}

// canonicalizeChannel converts a channel name to its canonical form.
func canonicalizeChannel(d Dialect, c string) string {
	return canonicalizeNick(d, c)
}

// isValidNickRfc reports whether every character of n belongs to the
// RFC 1459/2810 nickname alphabet. The source this was distilled from used
// half-open ranges (c < 'z', c < '9') which wrongly excludes 'z'/'Z'/'9';
// this is treated as a bug (spec.md §9 Open Questions) and fixed here to
// use inclusive ranges.
func isValidNickRfc(maxLen int, n string) bool {
	if len(n) == 0 || len(n) > maxLen {
		return false
	}
	for _, ch := range n {
		if ch >= 'a' && ch <= 'z' {
			continue
		}
		if ch >= 'A' && ch <= 'Z' {
			continue
		}
		if ch >= '0' && ch <= '9' {
			continue
		}
		switch ch {
		case '[', ']', '\\', '`', '_', '^', '{', '|', '}':
			continue
		}
		return false
	}
	return true
}

// isValidNickModern reports whether n is a valid Modern-dialect nickname:
// any character except space, comma, BEL, '!', '@', '*', '?', '+', '%', '#'.
func isValidNickModern(maxLen int, n string) bool {
	if len(n) == 0 || len(n) > maxLen {
		return false
	}
	for _, ch := range n {
		switch ch {
		case ' ', ',', 0x07, '!', '@', '*', '?', '+', '%', '#':
			return false
		}
	}
	return true
}

// isValidNick validates a nickname under the active dialect.
func isValidNick(d Dialect, maxLen int, n string) bool {
	if d == Modern {
		return isValidNickModern(maxLen, n)
	}
	return isValidNickRfc(maxLen, n)
}

// isValidUser checks a USER-command ident string for validity.
func isValidUser(u string) bool {
	if len(u) == 0 {
		return false
	}
	for _, ch := range u {
		switch {
		case ch == ' ', ch == '\x00', ch == '\r', ch == '\n', ch == '@':
			return false
		}
	}
	return true
}

// isValidChannel checks a channel name for grammar validity
// against the given type registry, per spec.md §4.10: first byte must be a
// registered prefix; the body may not contain space, comma, BEL, or ':'.
func isValidChannel(types *ChannelTypeRegistry, maxLen int, c string) bool {
	if len(c) < 2 || len(c) > maxLen {
		return false
	}
	if _, ok := types.Lookup(c[0]); !ok {
		return false
	}
	for _, ch := range c[1:] {
		switch ch {
		case ' ', ',', 0x07, ':':
			return false
		}
	}
	return true
}

// splitTargets splits a PRIVMSG/NOTICE/JOIN-style comma-separated target
// list, dropping empty entries.
func splitTargets(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
