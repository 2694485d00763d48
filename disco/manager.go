package disco

import (
	"context"
	"sync"

	"github.com/ge0rg/smack4/xmpp"
)

var (
	managersMu sync.Mutex
	managers   = map[xmpp.Conn]*Manager{}
)

// Manager answers discovery queries for one connection and keeps the
// set of features the connection itself advertises.
type Manager struct {
	conn xmpp.Conn

	mu       sync.Mutex
	features map[string]struct{}
}

// GetManager returns the discovery manager of the connection,
// creating it on first use. There is exactly one manager per
// connection.
func GetManager(conn xmpp.Conn) *Manager {
	managersMu.Lock()
	defer managersMu.Unlock()
	m, ok := managers[conn]
	if !ok {
		m = &Manager{conn: conn, features: make(map[string]struct{})}
		managers[conn] = m
	}
	return m
}

// Close drops the manager registered for the connection.
func Close(conn xmpp.Conn) {
	managersMu.Lock()
	defer managersMu.Unlock()
	delete(managers, conn)
}

// AddFeature advertises the feature var on this connection.
func (m *Manager) AddFeature(feature string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.features[feature] = struct{}{}
}

// RemoveFeature stops advertising the feature var.
func (m *Manager) RemoveFeature(feature string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.features, feature)
}

// IncludesFeature reports whether the feature is currently advertised.
func (m *Manager) IncludesFeature(feature string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.features[feature]
	return ok
}

// Features returns the advertised feature vars.
func (m *Manager) Features() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	fs := make([]string, 0, len(m.features))
	for f := range m.features {
		fs = append(fs, f)
	}
	return fs
}

// Info fetches the disco#info of the entity.
func (m *Manager) Info(ctx context.Context, jid xmpp.JID) (Info, error) {
	res, err := m.conn.Request(ctx, xmpp.NewIQ(xmpp.IQGet, jid, InfoQuery{}))
	if err != nil {
		return Info{}, err
	}
	info, _ := res.Payload.(Info)
	return info, nil
}

// Supports reports whether the entity advertises the feature var.
func (m *Manager) Supports(ctx context.Context, jid xmpp.JID, feature string) (bool, error) {
	info, err := m.Info(ctx, jid)
	if err != nil {
		return false, err
	}
	return info.HasFeature(feature), nil
}

// Items fetches the disco#items of the entity.
func (m *Manager) Items(ctx context.Context, jid xmpp.JID) ([]Item, error) {
	res, err := m.conn.Request(ctx, xmpp.NewIQ(xmpp.IQGet, jid, ItemsQuery{}))
	if err != nil {
		return nil, err
	}
	items, _ := res.Payload.(Items)
	return items.Items, nil
}

// Identities fetches the disco#info identities of the entity.
func (m *Manager) Identities(ctx context.Context, jid xmpp.JID) ([]Identity, error) {
	info, err := m.Info(ctx, jid)
	if err != nil {
		return nil, err
	}
	return info.Identities, nil
}
