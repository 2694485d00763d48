package xmpp

import "context"

// Requester performs a single IQ request/response round trip. An IQ
// of type "error" is returned as a zero IQ and the *StanzaError; a
// transport failure is returned unchanged.
type Requester interface {
	Request(ctx context.Context, iq IQ) (IQ, error)
}

// Conn is the slice of an XMPP connection the bytestream
// negotiation needs: IQ round trips plus the addresses on both ends
// of the stream.
type Conn interface {
	Requester

	// LocalJID is the full JID the connection is bound to.
	LocalJID() JID
	// ServiceJID is the JID of the user's XMPP server.
	ServiceJID() JID
}
