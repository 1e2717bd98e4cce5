package catbox

import (
	"net"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
)

// readBufferSize is fixed by §4.8 step 2; it is not an Options field because
// spec.md gives it a single hardcoded value across dialects, unlike the
// sweep timings below. WakeupTime/PingTime/DeadTime come from Options
// instead of being hardcoded, so a deployer's ping-time/dead-time config
// actually reaches the sweep that uses them.
const readBufferSize = 2048

type acceptedConn struct {
	id         uint64
	conn       net.Conn
	remoteAddr string
}

type lineEvent struct {
	id   uint64
	line string
}

type deadEvent struct {
	id     uint64
	reason string
}

// Reactor is C8: it owns every socket, serializes all World mutation on one
// goroutine, and drives the parser/dispatcher/ping-sweep/drain cycle.
// Per-connection reader goroutines do the blocking Accept()/Read() calls
// and funnel results back over channels — the reactor's central select is
// the single-threaded "readiness check" spec.md describes; a ticker with
// period Options.WakeupTime stands in for the bounded wait.
type Reactor struct {
	srv *Server

	listenAddrs []string
	listeners   []net.Listener

	// ListenFD, if >= 0, names an already-open listening socket (systemd-style
	// socket activation via -listen-fd) that bindListeners inherits instead of
	// binding listenAddrs fresh.
	ListenFD int

	sockets map[uint64]net.Conn
	traceID map[uint64]uuid.UUID

	newConn chan acceptedConn
	lines   chan lineEvent
	dead    chan deadEvent

	wg conc.WaitGroup
}

// NewReactor builds a Reactor bound to srv, listening on the ports named in
// srv.Opts.ListenPorts.
func NewReactor(srv *Server) *Reactor {
	return &Reactor{
		srv:         srv,
		listenAddrs: srv.Opts.ListenPorts,
		ListenFD:    -1,
		sockets:     map[uint64]net.Conn{},
		traceID:     map[uint64]uuid.UUID{},
		newConn:     make(chan acceptedConn, 64),
		lines:       make(chan lineEvent, 256),
		dead:        make(chan deadEvent, 64),
	}
}

// Run listens, accepts, and drives the reactor loop until shutdown. If a
// RESTART is requested it re-binds listening sockets and re-enters the loop
// (§4.8 Shutdown).
func (r *Reactor) Run() error {
	for {
		if err := r.bindListeners(); err != nil {
			return err
		}

		r.runLoop()

		r.closeListeners()

		if !r.srv.RestartRequested {
			return nil
		}
		r.srv.RestartRequested = false
		r.srv.StopRequested = false
	}
}

// bindListeners binds r.listenAddrs, unless ListenFD names an inherited
// listening socket (-listen-fd), in which case that fd is used instead of
// binding fresh — the systemd-socket-activation path.
func (r *Reactor) bindListeners() error {
	if r.ListenFD >= 0 {
		f := os.NewFile(uintptr(r.ListenFD), "listen-fd")
		ln, err := net.FileListener(f)
		if err != nil {
			return err
		}
		_ = f.Close()
		r.listeners = append(r.listeners, ln)
		r.wg.Go(func() { r.acceptLoop(ln) })
		return nil
	}

	for _, addr := range r.listenAddrs {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		r.listeners = append(r.listeners, ln)
		l := ln
		r.wg.Go(func() { r.acceptLoop(l) })
	}
	return nil
}

func (r *Reactor) closeListeners() {
	for _, ln := range r.listeners {
		_ = ln.Close()
	}
	r.listeners = nil
}

func (r *Reactor) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		r.newConn <- acceptedConn{conn: conn, remoteAddr: conn.RemoteAddr().String()}
	}
}

// runLoop is the per-iteration reactor body (§4.8).
func (r *Reactor) runLoop() {
	ticker := time.NewTicker(r.srv.Opts.WakeupTime)
	defer ticker.Stop()

	for {
		select {
		case ac := <-r.newConn:
			r.handleAccept(ac)

		case le := <-r.lines:
			r.handleLine(le)

		case de := <-r.dead:
			r.handleDead(de)

		case <-ticker.C:
			r.pingSweep()
		}

		r.drainPendingClose()
		r.drainOutputs()

		if r.srv.StopRequested {
			r.shutdown()
			return
		}
	}
}

func (r *Reactor) handleAccept(ac acceptedConn) {
	id := r.srv.World.NextConnID()
	host, _, _ := net.SplitHostPort(ac.remoteAddr)
	if host == "" {
		host = ac.remoteAddr
	}

	c := &Conn{
		ID:         id,
		RemoteAddr: ac.remoteAddr,
		Host:       host,
		LastAction: time.Now(),
		LastAlive:  time.Now(),
		LastPing:   time.Now(),
	}
	if r.srv.Opts.ServerPass == "" {
		c.GotPass = true
	}
	r.srv.World.InsertConn(c)

	r.sockets[id] = ac.conn
	r.traceID[id] = uuid.New()

	conn := ac.conn
	r.wg.Go(func() { r.readLoop(id, conn) })

	r.srv.Log.WithField("conn_id", id).WithField("trace_id", r.traceID[id]).
		WithField("remote_addr", ac.remoteAddr).Debug("accepted connection")
}

// readLoop reads into a fixed buffer and splits on CR/LF, per §4.8 step 2.
// It owns its own leftover-bytes buffer exclusively, so no lock is needed
// even though it runs on its own goroutine: only completed lines cross back
// to the reactor, over the lines channel.
func (r *Reactor) readLoop(id uint64, conn net.Conn) {
	buf := make([]byte, readBufferSize)
	var leftover []byte

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			leftover = append(leftover, buf[:n]...)
			var line []byte
			for i := 0; i < len(leftover); i++ {
				if leftover[i] == '\r' || leftover[i] == '\n' {
					if len(line) > 0 {
						r.lines <- lineEvent{id: id, line: string(line)}
						line = nil
					}
					continue
				}
				line = append(line, leftover[i])
			}
			leftover = line
		}
		if err != nil {
			r.dead <- deadEvent{id: id, reason: "Socket reset by peer"}
			return
		}
	}
}

func (r *Reactor) handleLine(le lineEvent) {
	c, ok := r.srv.World.Conns()[le.id]
	if !ok {
		return
	}
	c.LastAction = time.Now()
	c.LastAlive = time.Now()

	msg, err := ParseLine(le.line, r.srv.Opts.MaxLineLength)
	if err != nil {
		r.srv.Log.WithField("conn_id", le.id).WithError(err).Debug("malformed line, dropping")
		return
	}

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.srv.Log.WithField("conn_id", le.id).WithField("panic", rec).
					Error("internal error handling command")
			}
		}()
		r.srv.Dispatch(c, msg)
	}()
}

func (r *Reactor) handleDead(de deadEvent) {
	c, ok := r.srv.World.Conns()[de.id]
	if !ok {
		return
	}
	if c.Registered {
		quitConn(r.srv, c, de.reason, false)
	} else {
		r.srv.World.RemoveConn(c)
		r.srv.QueueClose(c)
	}
}

// removeConn flushes whatever output is still queued for c — including the
// "Closing Link" ERROR line quitConn just appended — then closes its real
// socket. c may already be gone from World.Conns() by the time this runs
// (quitConn removes it before queuing), so the flush has to happen here
// against the Conn directly rather than via drainOutputs, which only
// iterates the live World index.
func (r *Reactor) removeConn(c *Conn) {
	if conn, ok := r.sockets[c.ID]; ok {
		for _, line := range c.PendingOutput {
			_, _ = conn.Write([]byte(line + "\r\n"))
		}
		c.PendingOutput = nil
		_ = conn.Close()
		delete(r.sockets, c.ID)
	}
	delete(r.traceID, c.ID)
}

// drainPendingClose closes the real socket for every connection a handler
// queued via Server.QueueClose this iteration. This is the only way the
// reactor learns about a connection closed by something other than the one
// it just dispatched to — KILL tearing down its target, not the killer.
func (r *Reactor) drainPendingClose() {
	pending := r.srv.PendingClose
	r.srv.PendingClose = nil
	for _, c := range pending {
		r.removeConn(c)
	}
}

// pingSweep implements §4.8 step 3, timed by the deployer's configured
// ping-time/dead-time (Options.PingTime/DeadTime) rather than a fixed value.
func (r *Reactor) pingSweep() {
	now := time.Now()
	pingTime := r.srv.Opts.PingTime
	deadTime := r.srv.Opts.DeadTime
	var toRemove []*Conn

	for _, c := range r.srv.World.Conns() {
		if !c.Registered {
			continue
		}
		if now.Sub(c.LastAction) < pingTime || now.Sub(c.LastAlive) < pingTime {
			continue
		}
		if now.Sub(c.LastAlive) > deadTime {
			toRemove = append(toRemove, c)
			continue
		}
		if now.Sub(c.LastPing) > pingTime {
			r.srv.Reply.FromServer(c, "PING", r.srv.Opts.ServerName)
			c.LastPing = now
		}
	}

	for _, c := range toRemove {
		quitConn(r.srv, c, "Ping Timeout", false)
	}
}

// drainOutputs implements §4.8 step 4.
func (r *Reactor) drainOutputs() {
	for id, c := range r.srv.World.Conns() {
		if len(c.PendingOutput) == 0 {
			continue
		}
		conn, ok := r.sockets[id]
		if ok {
			for _, line := range c.PendingOutput {
				_, _ = conn.Write([]byte(line + "\r\n"))
			}
		}
		c.PendingOutput = nil
	}
}

// shutdown implements §4.8's shutdown sequence: goodbye to every user
// connection, close all sockets, clear indices.
func (r *Reactor) shutdown() {
	for _, c := range r.srv.World.Conns() {
		if c.Registered {
			r.srv.Reply.Raw(c, ":"+r.srv.Opts.ServerName+" ERROR :Server Shutdown")
		}
	}
	r.drainOutputs()

	for id, conn := range r.sockets {
		_ = conn.Close()
		delete(r.sockets, id)
	}
	for _, c := range r.srv.World.Conns() {
		r.srv.World.RemoveConn(c)
	}
}
