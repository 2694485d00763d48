package disco

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ge0rg/smack4/xmpp"
)

// stubConn answers every IQ with the same payload.
type stubConn struct {
	payload any
	last    xmpp.IQ
}

func (s *stubConn) Request(_ context.Context, iq xmpp.IQ) (xmpp.IQ, error) {
	s.last = iq
	return iq.Result(s.payload), nil
}

func (s *stubConn) LocalJID() xmpp.JID   { return "romeo@example.net/orchard" }
func (s *stubConn) ServiceJID() xmpp.JID { return "example.net" }

func TestGetManagerOnePerConnection(t *testing.T) {
	conn1 := &stubConn{}
	conn2 := &stubConn{}
	defer Close(conn1)
	defer Close(conn2)

	assert.Same(t, GetManager(conn1), GetManager(conn1))
	assert.NotSame(t, GetManager(conn1), GetManager(conn2))
}

func TestFeatureRegistry(t *testing.T) {
	conn := &stubConn{}
	defer Close(conn)
	m := GetManager(conn)

	const feature = "http://jabber.org/protocol/bytestreams"
	require.False(t, m.IncludesFeature(feature))

	m.AddFeature(feature)
	assert.True(t, m.IncludesFeature(feature))
	assert.Contains(t, m.Features(), feature)

	m.RemoveFeature(feature)
	assert.False(t, m.IncludesFeature(feature))
}

func TestSupports(t *testing.T) {
	conn := &stubConn{payload: Info{Features: []Feature{{Var: "urn:example:feature"}}}}
	defer Close(conn)
	m := GetManager(conn)

	ok, err := m.Supports(context.Background(), "juliet@example.com", "urn:example:feature")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, xmpp.IQGet, conn.last.Type)
	assert.Equal(t, xmpp.JID("juliet@example.com"), conn.last.To)

	ok, err = m.Supports(context.Background(), "juliet@example.com", "urn:example:other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestItemsAndIdentities(t *testing.T) {
	conn := &stubConn{payload: Items{Items: []Item{{JID: "proxy.example.com"}}}}
	defer Close(conn)
	m := GetManager(conn)

	items, err := m.Items(context.Background(), "example.com")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, xmpp.JID("proxy.example.com"), items[0].JID)

	conn.payload = Info{Identities: []Identity{{Category: "proxy", Type: "bytestreams"}}}
	identities, err := m.Identities(context.Background(), "proxy.example.com")
	require.NoError(t, err)
	require.Len(t, identities, 1)
	assert.Equal(t, "proxy", identities[0].Category)
	assert.Equal(t, "bytestreams", identities[0].Type)
}

func TestRequestErrorPropagates(t *testing.T) {
	conn := &errConn{}
	defer Close(conn)
	m := GetManager(conn)

	_, err := m.Supports(context.Background(), "juliet@example.com", "urn:example:feature")
	var stanzaErr *xmpp.StanzaError
	require.ErrorAs(t, err, &stanzaErr)
	assert.Equal(t, xmpp.ServiceUnavailable, stanzaErr.Condition)
}

type errConn struct{}

func (e *errConn) Request(context.Context, xmpp.IQ) (xmpp.IQ, error) {
	return xmpp.IQ{}, &xmpp.StanzaError{Condition: xmpp.ServiceUnavailable}
}

func (e *errConn) LocalJID() xmpp.JID   { return "romeo@example.net/orchard" }
func (e *errConn) ServiceJID() xmpp.JID { return "example.net" }
