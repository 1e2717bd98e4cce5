package catbox

import (
	"strconv"
	"strings"
	"time"
)

func cmdJoin(s *Server, c *Conn, m Message) {
	if m.Params[0] == "0" {
		for name, ch := range c.Channels {
			partChannel(s, c, name, ch, c.Nick)
		}
		return
	}

	names := splitTargets(m.Params[0])
	var keys []string
	if len(m.Params) > 1 {
		keys = strings.Split(m.Params[1], ",")
	}

	if len(c.Channels)+len(names) > s.Opts.MaxChannelsPerUser {
		s.Reply.Numeric(c, ErrTooManyChannels, m.Params[0], "You have joined too many channels")
		return
	}

	for i, name := range names {
		key := ""
		if i < len(keys) {
			key = keys[i]
		}
		joinOne(s, c, name, key)
	}
}

func joinOne(s *Server, c *Conn, name, key string) {
	if !isValidChannel(s.Types, s.Opts.MaxChannelNameLength, name) {
		s.Reply.Numeric(c, ErrNoSuchChannel, name, "No such channel")
		return
	}

	canon := canonicalizeChannel(s.Opts.Dialect, name)
	if _, already := c.Channels[canon]; already {
		return // L2: idempotent, no state change, no numeric
	}

	ch, created := s.World.GetOrCreateChannel(canon, name)

	if !created {
		if k, ok := ch.Modes['k']; ok && k != key {
			s.Reply.Numeric(c, ErrBadChannelKey, name, "Cannot join channel (+k)")
			return
		}
		if limit, ok := ch.Modes['l']; ok {
			n, _ := strconv.Atoi(limit)
			if n > 0 && len(ch.Members) >= n {
				s.Reply.Numeric(c, ErrChannelIsFull, name, "Cannot join channel (+l)")
				return
			}
		}
		if ch.HasMode('i') {
			if _, invited := ch.Invites[c.ID]; !invited {
				s.Reply.Numeric(c, ErrInviteOnlyChan, name, "Cannot join channel (+i)")
				return
			}
		}
		if banned(ch, c) {
			s.Reply.Numeric(c, ErrBannedFromChan, name, "Cannot join channel (+b)")
			return
		}
	}

	var rank byte
	if created {
		rank = s.Modes.CreationRank()
	}
	s.World.Join(c, canon, ch, rank)
	delete(ch.Invites, c.ID)

	for _, mem := range ch.Members {
		s.Reply.FromUser(mem.Conn, c, "JOIN", name)
	}

	if ch.Topic == "" {
		s.Reply.Numeric(c, RplNoTopic, name, "No topic is set")
	} else {
		s.Reply.Numeric(c, RplTopic, name, ch.Topic)
	}

	sendNames(s, c, ch)
}

func banned(ch *Channel, c *Conn) bool {
	mask := c.Usermask()
	for _, e := range ch.Bans {
		if matchesMask(e.Mask, mask) {
			for _, ex := range ch.BanExceptions {
				if matchesMask(ex.Mask, mask) {
					return false
				}
			}
			return true
		}
	}
	return false
}

func sendNames(s *Server, c *Conn, ch *Channel) {
	var names []string
	for _, mem := range ch.Members {
		prefix := s.Modes.RankSymbols(mem.Ranks)
		names = append(names, prefix+mem.Conn.Nick)
	}
	s.Reply.Numeric(c, RplNamReply, "=", ch.Name, strings.Join(names, " "))
	s.Reply.Numeric(c, RplEndOfNames, ch.Name, "End of NAMES list")
}

func cmdPart(s *Server, c *Conn, m Message) {
	reason := c.Nick
	if len(m.Params) > 1 {
		reason = m.Params[1]
	}
	for _, name := range splitTargets(m.Params[0]) {
		canon := canonicalizeChannel(s.Opts.Dialect, name)
		ch, ok := s.World.LookupChannel(canon)
		if !ok {
			s.Reply.Numeric(c, ErrNoSuchChannel, name, "No such channel")
			continue
		}
		if _, member := ch.Members[c.ID]; !member {
			s.Reply.Numeric(c, ErrNotOnChannel, name, "You're not on that channel")
			continue
		}
		partChannel(s, c, canon, ch, reason)
	}
}

func partChannel(s *Server, c *Conn, canon string, ch *Channel, reason string) {
	name := ch.Name
	for _, mem := range ch.Members {
		s.Reply.FromUser(mem.Conn, c, "PART", name, reason)
	}
	s.World.Part(c, canon, ch)
}

func cmdTopic(s *Server, c *Conn, m Message) {
	canon := canonicalizeChannel(s.Opts.Dialect, m.Params[0])
	ch, ok := s.World.LookupChannel(canon)
	if !ok {
		s.Reply.Numeric(c, ErrNoSuchChannel, m.Params[0], "No such channel")
		return
	}
	mem, isMember := ch.Members[c.ID]
	if !isMember {
		s.Reply.Numeric(c, ErrNotOnChannel, m.Params[0], "You're not on that channel")
		return
	}

	if len(m.Params) == 1 {
		if ch.Topic == "" {
			s.Reply.Numeric(c, RplNoTopic, ch.Name, "No topic is set")
		} else {
			s.Reply.Numeric(c, RplTopic, ch.Name, ch.Topic)
			s.Reply.Numeric(c, RplTopicWhoTime, ch.Name, ch.TopicSetBy, strconv.FormatInt(ch.TopicSetAt.Unix(), 10))
		}
		return
	}

	if ch.HasMode('t') && !mem.HasRank('o') {
		s.Reply.Numeric(c, ErrChanOpPrivsNeeded, ch.Name, "You're not channel operator")
		return
	}

	topic := m.Params[1]
	if len(topic) > maxTopicLength {
		topic = topic[:maxTopicLength]
	}
	ch.Topic = topic
	ch.TopicSetBy = c.Nick
	ch.TopicSetAt = time.Now()

	for _, member := range ch.Members {
		s.Reply.FromUser(member.Conn, c, "TOPIC", ch.Name, topic)
	}
}

const maxTopicLength = 300

func cmdNames(s *Server, c *Conn, m Message) {
	if len(m.Params) == 0 {
		return
	}
	for _, name := range splitTargets(m.Params[0]) {
		canon := canonicalizeChannel(s.Opts.Dialect, name)
		if ch, ok := s.World.LookupChannel(canon); ok {
			sendNames(s, c, ch)
		}
	}
}

func cmdList(s *Server, c *Conn, m Message) {
	for _, ch := range s.World.Channels() {
		if ch.HasMode('s') || ch.HasMode('p') {
			continue
		}
		s.Reply.Numeric(c, RplList, ch.Name, strconv.Itoa(len(ch.Members)), ch.Topic)
	}
	s.Reply.Numeric(c, RplListEnd, "End of LIST")
}

func cmdInvite(s *Server, c *Conn, m Message) {
	targetNickName := m.Params[0]
	canonChan := canonicalizeChannel(s.Opts.Dialect, m.Params[1])

	target, ok := s.World.LookupNick(canonicalizeNick(s.Opts.Dialect, targetNickName))
	if !ok {
		s.Reply.Numeric(c, ErrNoSuchNick, targetNickName, "No such nick/channel")
		return
	}

	ch, ok := s.World.LookupChannel(canonChan)
	if ok {
		mem, isMember := ch.Members[c.ID]
		if !isMember {
			s.Reply.Numeric(c, ErrNotOnChannel, m.Params[1], "You're not on that channel")
			return
		}
		if ch.HasMode('i') && !mem.HasRank('o') {
			s.Reply.Numeric(c, ErrChanOpPrivsNeeded, m.Params[1], "You're not channel operator")
			return
		}
		if _, already := ch.Members[target.ID]; already {
			s.Reply.Numeric(c, ErrUserOnChannel, targetNickName, "is already on channel")
			return
		}
		if ch.Invites == nil {
			ch.Invites = map[uint64]struct{}{}
		}
		ch.Invites[target.ID] = struct{}{}
	}

	s.Reply.Numeric(c, RplInviting, targetNickName, m.Params[1])
	s.Reply.FromUser(target, c, "INVITE", targetNickName, m.Params[1])
}

func cmdKick(s *Server, c *Conn, m Message) {
	canon := canonicalizeChannel(s.Opts.Dialect, m.Params[0])
	ch, ok := s.World.LookupChannel(canon)
	if !ok {
		s.Reply.Numeric(c, ErrNoSuchChannel, m.Params[0], "No such channel")
		return
	}
	mem, isMember := ch.Members[c.ID]
	if !isMember {
		s.Reply.Numeric(c, ErrNotOnChannel, m.Params[0], "You're not on that channel")
		return
	}
	if !mem.HasRank('o') {
		s.Reply.Numeric(c, ErrChanOpPrivsNeeded, ch.Name, "You're not channel operator")
		return
	}

	reason := c.Nick
	if len(m.Params) > 2 {
		reason = m.Params[2]
	}

	for _, nick := range splitTargets(m.Params[1]) {
		target, ok := s.World.LookupNick(canonicalizeNick(s.Opts.Dialect, nick))
		if !ok {
			s.Reply.Numeric(c, ErrNoSuchNick, nick, "No such nick/channel")
			continue
		}
		if _, member := ch.Members[target.ID]; !member {
			s.Reply.Numeric(c, ErrUserNotInChannel, nick, "They aren't on that channel")
			continue
		}
		for _, m2 := range ch.Members {
			s.Reply.FromUser(m2.Conn, c, "KICK", ch.Name, nick, reason)
		}
		s.World.Part(target, canon, ch)
	}
}
