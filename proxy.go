package bytestreams

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"net"
	"sync"
	"time"

	"github.com/ge0rg/smack4/statute"
)

// negotiationTimeout bounds the server side of a single SOCKS5
// handshake on the local proxy.
const negotiationTimeout = 10 * time.Second

// Proxy is the initiator-side SOCKS5 stream host: a mini server that
// accepts the target's inbound connection, pairs it with a pending
// transfer by digest, and hands the socket to the waiting session.
type Proxy struct {
	logger Logger
	addr   string

	mu        sync.Mutex
	listener  net.Listener
	done      chan struct{}
	addresses []string
	transfers map[string]chan net.Conn
}

// NewProxy creates a stopped proxy listening on 127.0.0.1 with an
// ephemeral port unless configured otherwise.
func NewProxy(opts ...Option) *Proxy {
	p := &Proxy{
		addr:      "127.0.0.1:0",
		transfers: make(map[string]chan net.Conn),
		logger:    NewLogger(log.New(ioutil.Discard, "bytestreams: ", log.LstdFlags)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start creates the listener and runs the accept loop in its own
// goroutine. Starting a running proxy is a no-op.
func (p *Proxy) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listener != nil {
		return nil
	}
	l, err := net.Listen("tcp", p.addr)
	if err != nil {
		return err
	}
	done := p.attach(l)
	go func() {
		_ = p.serve(l, done)
	}()
	return nil
}

// Serve runs the accept loop on a caller-supplied listener, blocking
// until the proxy is stopped or the listener fails.
func (p *Proxy) Serve(l net.Listener) error {
	p.mu.Lock()
	if p.listener != nil {
		p.mu.Unlock()
		l.Close()
		return fmt.Errorf("proxy already running")
	}
	done := p.attach(l)
	p.mu.Unlock()
	return p.serve(l, done)
}

// attach records the listener and seeds the advertised address list
// with the bound host. Callers hold p.mu.
func (p *Proxy) attach(l net.Listener) chan struct{} {
	p.listener = l
	p.done = make(chan struct{})
	if host, _, err := net.SplitHostPort(l.Addr().String()); err == nil {
		present := false
		for _, a := range p.addresses {
			if a == host {
				present = true
				break
			}
		}
		if !present {
			p.addresses = append([]string{host}, p.addresses...)
		}
	}
	return p.done
}

// Stop closes the listener and cancels pending transfers. Sockets
// already paired but not yet claimed are closed.
func (p *Proxy) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listener == nil {
		return
	}
	_ = p.listener.Close()
	p.listener = nil
	close(p.done)
	for digest, ch := range p.transfers {
		delete(p.transfers, digest)
		select {
		case conn := <-ch:
			conn.Close()
		default:
		}
	}
}

// Running reports whether the accept loop is active.
func (p *Proxy) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listener != nil
}

// Port returns the bound TCP port, or 0 when the proxy is stopped.
func (p *Proxy) Port() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listener == nil {
		return 0
	}
	if addr, ok := p.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// AddLocalAddress appends an address to advertise in stream host
// offers. Duplicates are dropped; existing entries keep their order.
func (p *Proxy) AddLocalAddress(addr string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.addresses {
		if a == addr {
			return
		}
	}
	p.addresses = append(p.addresses, addr)
}

// LocalAddresses returns the advertised addresses in insertion order.
func (p *Proxy) LocalAddresses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.addresses...)
}

// AddTransfer registers digest as an expected inbound transfer. An
// existing registration for the same digest is replaced.
func (p *Proxy) AddTransfer(digest string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch, ok := p.transfers[digest]; ok {
		select {
		case conn := <-ch:
			conn.Close()
		default:
		}
	}
	p.transfers[digest] = make(chan net.Conn, 1)
}

// RemoveTransfer cancels the registration and drops a socket that was
// already paired but not claimed.
func (p *Proxy) RemoveTransfer(digest string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.transfers[digest]
	if !ok {
		return
	}
	delete(p.transfers, digest)
	select {
	case conn := <-ch:
		conn.Close()
	default:
	}
}

// SocketFor blocks until the accepted socket for digest arrives, the
// context expires, or the proxy stops.
func (p *Proxy) SocketFor(ctx context.Context, digest string) (net.Conn, error) {
	p.mu.Lock()
	ch, ok := p.transfers[digest]
	done := p.done
	running := p.listener != nil
	p.mu.Unlock()
	if !running {
		return nil, ErrProxyStopped
	}
	if !ok {
		return nil, ErrNoPendingTransfer
	}
	select {
	case conn := <-ch:
		return conn, nil
	case <-done:
		return nil, ErrProxyStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Proxy) serve(l net.Listener, done chan struct{}) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-done:
				return nil
			default:
				p.logger.Errorf("accept: %v", err)
				return err
			}
		}
		go func() {
			if err := p.serveConn(conn); err != nil {
				p.logger.Errorf("serve conn %v", err)
			}
		}()
	}
}

// serveConn runs the server side of the SOCKS5 handshake and pairs
// the socket with the matching pending transfer.
func (p *Proxy) serveConn(conn net.Conn) error {
	_ = conn.SetDeadline(time.Now().Add(negotiationTimeout))

	mr, err := statute.ParseMethodRequest(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to get method request, %v", err)
	}
	if !mr.HasMethod(statute.MethodNoAuth) {
		_, _ = conn.Write(statute.MethodReply{Ver: statute.VersionSocks5, Method: statute.MethodNoAcceptable}.Bytes())
		conn.Close()
		return statute.ErrNotSupportMethod
	}
	if _, err = conn.Write(statute.MethodReply{Ver: statute.VersionSocks5, Method: statute.MethodNoAuth}.Bytes()); err != nil {
		conn.Close()
		return err
	}

	req, err := statute.ParseRequest(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to get request, %v", err)
	}
	if req.Command != statute.CommandConnect || req.DstAddress.AddrType != statute.ATYPDomain {
		p.reject(conn, statute.RepCommandNotSupported, req.DstAddress)
		return fmt.Errorf("unsupported request command[%d]", req.Command)
	}

	digest := req.DstAddress.FQDN

	p.mu.Lock()
	_, ok := p.transfers[digest]
	p.mu.Unlock()
	if !ok {
		p.reject(conn, statute.RepHostUnreachable, req.DstAddress)
		return fmt.Errorf("no transfer pending for digest %s", digest)
	}

	reply := statute.Reply{
		Version:    statute.VersionSocks5,
		Response:   statute.RepSuccess,
		BndAddress: statute.DomainAddr(digest, 0),
	}
	if _, err = conn.Write(reply.Bytes()); err != nil {
		conn.Close()
		return err
	}
	_ = conn.SetDeadline(time.Time{})

	p.mu.Lock()
	ch, ok := p.transfers[digest]
	if !ok {
		p.mu.Unlock()
		conn.Close()
		return fmt.Errorf("transfer for digest %s canceled", digest)
	}
	select {
	case ch <- conn:
	default:
		// a socket for this digest is already paired
		conn.Close()
	}
	p.mu.Unlock()
	return nil
}

func (p *Proxy) reject(conn net.Conn, rep uint8, addr statute.AddrSpec) {
	reply := statute.Reply{
		Version:    statute.VersionSocks5,
		Response:   rep,
		BndAddress: addr,
	}
	_, _ = conn.Write(reply.Bytes())
	conn.Close()
}
