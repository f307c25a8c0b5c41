package main

import (
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// listenBacklog is the fixed listen(2) backlog. The net package hard-codes
// its own backlog internally and exposes no way to override it, so the
// listening socket is built with raw bind+listen syscalls and then wrapped
// via net.FileListener so every connection handled afterward is a plain
// net.Conn.
const listenBacklog = 10

// Dispatcher owns the accept loop: it binds the listening socket, optionally
// negotiates TLS per connection, and spawns one goroutine per accepted
// connection.
type Dispatcher struct {
	cfg       *ServerConfig
	cache     *Cache
	logger    *Logger
	tlsConfig *tls.Config

	reload    atomic.Bool
	terminate atomic.Bool
}

func NewDispatcher(cfg *ServerConfig, cache *Cache, logger *Logger) *Dispatcher {
	return &Dispatcher{cfg: cfg, cache: cache, logger: logger}
}

// SetTLSConfig installs the TLS server config used to handshake each
// accepted connection when cfg.TLSEnabled is set. Must be called before Run.
func (d *Dispatcher) SetTLSConfig(tc *tls.Config) {
	d.tlsConfig = tc
}

// installSignalHandlers wires SIGINT to graceful termination, SIGUSR1 to a
// reload-on-next-accept flag, and SIGPIPE to a no-op, so a peer closing
// mid-write surfaces as a write error rather than killing the process.
// Closing ln on SIGINT is what unblocks the dispatcher parked in Accept;
// the runtime never surfaces EINTR to callers.
func (d *Dispatcher) installSignalHandlers(ln net.Listener) {
	sigpipe := make(chan os.Signal, 1)
	signal.Notify(sigpipe, syscall.SIGPIPE)
	go func() {
		for range sigpipe {
			// no-op: absorb SIGPIPE so a dead peer surfaces as a write error.
		}
	}()

	term := make(chan os.Signal, 1)
	signal.Notify(term, syscall.SIGINT)
	go func() {
		for range term {
			d.logger.Infof("SIGINT received, terminating after in-flight workers complete")
			d.terminate.Store(true)
			ln.Close()
		}
	}()

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGUSR1)
	go func() {
		for range reload {
			d.logger.Infof("SIGUSR1 received, cache reload scheduled")
			d.reload.Store(true)
		}
	}()
}

// Run binds the listening socket and drives the accept loop until a
// terminate signal is observed. If cfg.TLSEnabled, tlsConfig must be set
// first via SetTLSConfig.
func (d *Dispatcher) Run() error {
	ln, err := listenTCPWithBacklog(d.cfg.resolveBindAddress(), d.cfg.Port, listenBacklog)
	if err != nil {
		return err
	}
	defer ln.Close()
	d.installSignalHandlers(ln)
	d.logger.Infof("listening on %s (tls=%v)", d.cfg.listenAddr(), d.cfg.TLSEnabled)

	for {
		if d.reload.Load() {
			d.reload.Store(false)
			if err := d.cache.Load(d.cfg.HTMLRoot); err != nil {
				d.logger.Errorf("cache reload failed, stopping accept loop: %v", err)
				return err
			}
			d.logger.Infof("cache reloaded")
		}

		if d.terminate.Load() {
			d.logger.Infof("terminate flag set, exiting accept loop")
			return nil
		}

		conn, err := ln.Accept()
		if err != nil {
			if d.terminate.Load() {
				return nil
			}
			d.logger.Warnf("accept error: %v", err)
			continue
		}

		if d.terminate.Load() {
			conn.Close()
			return nil
		}

		go d.handle(conn)
	}
}

// handle services exactly one connection: parse -> resolve -> respond ->
// close. It never returns an error; every failure is either logged or
// turned into an HTTP error response.
func (d *Dispatcher) handle(conn net.Conn) {
	defer conn.Close()

	var t *Transport
	if d.cfg.TLSEnabled {
		tlsConn := tls.Server(conn, d.tlsConfig)
		if err := tlsConn.Handshake(); err != nil {
			d.logger.Warnf("tls handshake failed for %s: %v", conn.RemoteAddr(), err)
			return
		}
		t = NewTLSTransport(tlsConn)
	} else {
		t = NewTransport(conn)
	}

	req, perr := ParseRequest(t)
	if perr == ParseIOError {
		return
	}
	if perr != nil {
		d.respondError(t, perr)
		return
	}

	if req.Method != MethodGet && req.Method != MethodHead {
		d.respondError(t, ParseNotImplemented)
		return
	}

	entry, ok := d.cache.Find(req.URI)
	status := StatusOK
	if !ok {
		status = StatusNotFound
		entry, ok = d.cache.Find(errorPagePath[StatusNotFound])
		if !ok {
			entry = syntheticEntry(StatusNotFound)
		}
	}
	defer d.cache.Release(entry)

	if err := WriteResponse(t, status, entry, d.cfg.ExtraHeaders, req.Method); err != nil {
		d.logger.Errorf("write response failed for %s: %v", conn.RemoteAddr(), err)
	}
}

// respondError maps a classified ParseError to its HTTP status and error
// page, falling back to the synthesized plain-text body if the error page
// is itself missing from the cache.
func (d *Dispatcher) respondError(t *Transport, perr error) {
	var status Status
	switch perr {
	case ParseBad:
		status = StatusBadRequest
	case ParseNotImplemented:
		status = StatusNotImplemented
	case ParseInternal:
		status = StatusInternalServerError
	default:
		status = StatusInternalServerError
	}

	entry, ok := d.cache.Find(errorPagePath[status])
	if !ok {
		entry = syntheticEntry(status)
	}
	defer d.cache.Release(entry)
	if err := WriteResponse(t, status, entry, d.cfg.ExtraHeaders, MethodGet); err != nil {
		d.logger.Errorf("write error response failed: %v", err)
	}
}

// listenTCPWithBacklog binds and listens on ip:port using raw syscalls so
// that the listen(2) backlog is exactly the caller-supplied value, then
// wraps the resulting file descriptor in a *net.TCPListener so every
// accepted connection is a plain net.Conn.
func listenTCPWithBacklog(ip string, port int, backlog int) (net.Listener, error) {
	addr, err := parseIPv4(ip)
	if err != nil {
		return nil, err
	}

	fd, err := syscall.Socket(syscall.AF_INET, syscall.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("dispatcher: socket: %w", err)
	}
	if err := syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("dispatcher: setsockopt: %w", err)
	}
	if err := syscall.Bind(fd, &syscall.SockaddrInet4{Addr: addr, Port: port}); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("dispatcher: bind %s:%d: %w", ip, port, err)
	}
	if err := syscall.Listen(fd, backlog); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("dispatcher: listen: %w", err)
	}

	f := os.NewFile(uintptr(fd), fmt.Sprintf("tcp-listen-%s:%d", ip, port))
	ln, err := net.FileListener(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("dispatcher: FileListener: %w", err)
	}
	return ln, nil
}

// parseIPv4 parses a dotted-quad literal into the 4-byte form syscall.Bind
// needs. The configured bind address is either "any" (mapped to the
// unspecified address before this call) or a strict dotted-quad literal.
func parseIPv4(s string) ([4]byte, error) {
	var out [4]byte
	ip := net.ParseIP(s)
	if ip == nil {
		return out, fmt.Errorf("dispatcher: invalid bind address %q", s)
	}
	v4 := ip.To4()
	if v4 == nil {
		return out, fmt.Errorf("dispatcher: bind address %q is not IPv4", s)
	}
	copy(out[:], v4)
	return out, nil
}
