// Package bytestreams implements the initiator side of XEP-0065 SOCKS5
// Bytestreams: given an XMPP connection it discovers stream host
// proxies, offers them to the target together with the local stream
// host, connects to whichever host the target picked, activates remote
// proxies and hands back a live duplex byte stream.
package bytestreams

import (
	"context"
	"io/ioutil"
	"log"
	"net"
	"sync"
	"time"

	"github.com/ge0rg/smack4/disco"
	"github.com/ge0rg/smack4/xmpp"
)

// featureName is the name reported by FeatureNotSupportedError.
const featureName = "SOCKS5 Bytestream"

// DefaultSessionTimeout bounds a whole EstablishSession negotiation
// unless overridden per manager.
const DefaultSessionTimeout = 10 * time.Second

var (
	managersMu sync.Mutex
	managers   = map[xmpp.Conn]*Manager{}

	defaultProxyOnce sync.Once
	defaultProxy     *Proxy
)

// DefaultProxy returns the process-wide local stream host shared by
// all managers. It is created stopped; callers start it when they
// want to announce local stream hosts.
func DefaultProxy() *Proxy {
	defaultProxyOnce.Do(func() {
		defaultProxy = NewProxy()
	})
	return defaultProxy
}

// Manager negotiates outgoing SOCKS5 bytestreams for one connection.
// There is exactly one manager per connection.
type Manager struct {
	conn  xmpp.Conn
	disco *disco.Manager

	blacklist *blacklist
	lastProxy lastProxy

	mu             sync.Mutex
	logger         Logger
	localProxy     *Proxy
	announceLocal  bool
	prioritize     bool
	sessionTimeout time.Duration
	sessions       map[string]struct{}
}

// GetManager returns the bytestream manager of the connection,
// creating it on first use and advertising the bytestreams feature on
// the connection's service discovery.
func GetManager(conn xmpp.Conn) *Manager {
	managersMu.Lock()
	defer managersMu.Unlock()
	m, ok := managers[conn]
	if !ok {
		m = &Manager{
			conn:           conn,
			disco:          disco.GetManager(conn),
			logger:         NewLogger(log.New(ioutil.Discard, "bytestreams: ", log.LstdFlags)),
			blacklist:      newBlacklist(),
			localProxy:     DefaultProxy(),
			announceLocal:  true,
			prioritize:     true,
			sessionTimeout: DefaultSessionTimeout,
			sessions:       make(map[string]struct{}),
		}
		m.disco.AddFeature(Namespace)
		managers[conn] = m
	}
	return m
}

// Close drops the manager from the per-connection registry and stops
// advertising the bytestreams feature. Used on connection teardown.
func (m *Manager) Close() {
	managersMu.Lock()
	delete(managers, m.conn)
	managersMu.Unlock()
	m.disco.RemoveFeature(Namespace)
}

// EnableService advertises the bytestreams feature on the connection.
func (m *Manager) EnableService() {
	m.disco.AddFeature(Namespace)
}

// DisableService stops advertising the bytestreams feature.
func (m *Manager) DisableService() {
	m.disco.RemoveFeature(Namespace)
}

// SetLogger replaces the manager's log target.
func (m *Manager) SetLogger(l Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l != nil {
		m.logger = l
	}
}

func (m *Manager) errorf(format string, args ...interface{}) {
	m.mu.Lock()
	l := m.logger
	m.mu.Unlock()
	l.Errorf(format, args...)
}

// LocalProxy returns the local stream host used for announcements.
func (m *Manager) LocalProxy() *Proxy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.localProxy
}

// SetLocalProxy replaces the local stream host used for
// announcements.
func (m *Manager) SetLocalProxy(p *Proxy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p != nil {
		m.localProxy = p
	}
}

// SetAnnounceLocalStreamHost controls whether the local proxy's
// addresses are offered to targets. Enabled by default.
func (m *Manager) SetAnnounceLocalStreamHost(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.announceLocal = enabled
}

// AnnounceLocalStreamHost reports whether local stream hosts are
// offered.
func (m *Manager) AnnounceLocalStreamHost() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.announceLocal
}

// SetProxyPrioritizationEnabled controls whether the most recently
// successful proxy is moved to the front of later offers. Enabled by
// default.
func (m *Manager) SetProxyPrioritizationEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prioritize = enabled
}

// ProxyPrioritizationEnabled reports whether proxy prioritization is
// active.
func (m *Manager) ProxyPrioritizationEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prioritize
}

// SetSessionTimeout bounds a whole negotiation; zero disables the
// bound and leaves only the caller's context.
func (m *Manager) SetSessionTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionTimeout = d
}

// SessionTimeout returns the negotiation bound.
func (m *Manager) SessionTimeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionTimeout
}

// EstablishSession negotiates a SOCKS5 bytestream to target and
// returns the live stream. An empty sessionID is replaced by a fresh
// random one; a sessionID colliding with a live session fails with
// ErrSessionIDInUse.
func (m *Manager) EstablishSession(ctx context.Context, target xmpp.JID, sessionID string) (*Session, error) {
	if sessionID == "" {
		sessionID = nextSessionID()
	}
	if timeout := m.SessionTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	supported, err := m.disco.Supports(ctx, target, Namespace)
	if err != nil {
		return nil, err
	}
	if !supported {
		return nil, &FeatureNotSupportedError{Feature: featureName, JID: target}
	}

	if err = m.claimSession(sessionID); err != nil {
		return nil, err
	}
	established := false
	defer func() {
		if !established {
			m.releaseSession(sessionID)
		}
	}()

	proxies, err := m.resolveProxies(ctx)
	if err != nil {
		return nil, err
	}
	hosts := m.resolveStreamHosts(ctx, proxies)
	if len(hosts) == 0 {
		return nil, ErrNoProxiesAvailable
	}

	initiator := m.conn.LocalJID()
	digest := Digest(sessionID, initiator, target)

	// The pending transfer must exist before the offer goes out, so
	// the target's inbound connect cannot race ahead of the waiter.
	localProxy := m.LocalProxy()
	localOffered := hostsInclude(hosts, initiator)
	if localOffered {
		localProxy.AddTransfer(digest)
		// the slot is stale once the socket is claimed or the attempt
		// failed, so it is dropped either way
		defer localProxy.RemoveTransfer(digest)
	}

	offer := Query{SID: sessionID, Mode: ModeTCP, StreamHosts: hosts}
	res, err := m.conn.Request(ctx, xmpp.NewIQ(xmpp.IQSet, target, offer))
	if err != nil {
		return nil, err
	}

	reply, _ := res.Payload.(Query)
	if reply.Used == nil {
		return nil, &UnknownUsedHostError{}
	}
	used := reply.Used.JID
	usedHost, found := findHost(hosts, used)
	if !found {
		return nil, &UnknownUsedHostError{Reported: used}
	}

	var stream net.Conn
	if used == initiator {
		stream, err = localProxy.SocketFor(ctx, digest)
		if err != nil {
			return nil, err
		}
	} else {
		stream, err = Client{StreamHost: usedHost, Digest: digest}.Connect(ctx)
		if err != nil {
			return nil, err
		}
		if err = m.activate(ctx, used, sessionID, target); err != nil {
			stream.Close()
			return nil, err
		}
		if m.ProxyPrioritizationEnabled() {
			m.lastProxy.set(used)
		}
	}

	established = true
	return newSession(stream, sessionID, m), nil
}

// activate asks the used proxy to splice the two halves of the stream.
func (m *Manager) activate(ctx context.Context, proxy xmpp.JID, sessionID string, target xmpp.JID) error {
	q := Query{SID: sessionID, Activate: &Activate{Target: target}}
	_, err := m.conn.Request(ctx, xmpp.NewIQ(xmpp.IQSet, proxy, q))
	return err
}

func (m *Manager) claimSession(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, live := m.sessions[sessionID]; live {
		return ErrSessionIDInUse
	}
	m.sessions[sessionID] = struct{}{}
	return nil
}

func (m *Manager) releaseSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

func hostsInclude(hosts []StreamHost, jid xmpp.JID) bool {
	for _, h := range hosts {
		if h.JID == jid {
			return true
		}
	}
	return false
}

// findHost returns the first offered host carrying jid.
func findHost(hosts []StreamHost, jid xmpp.JID) (StreamHost, bool) {
	for _, h := range hosts {
		if h.JID == jid {
			return h, true
		}
	}
	return StreamHost{}, false
}

func nextSessionID() string {
	return "js5_" + xmpp.NextID()
}
