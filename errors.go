package bytestreams

import (
	"errors"
	"fmt"

	"github.com/ge0rg/smack4/xmpp"
)

var (
	// ErrNoProxiesAvailable is returned when the resolved stream host
	// list for an offer ends up empty.
	ErrNoProxiesAvailable = errors.New("no SOCKS5 proxies available")

	// ErrSessionIDInUse is returned when the caller-supplied session ID
	// collides with a live session on the same connection.
	ErrSessionIDInUse = errors.New("session ID already in use")

	// ErrProxyStopped cancels pending transfers when the local SOCKS5
	// proxy shuts down.
	ErrProxyStopped = errors.New("local SOCKS5 proxy stopped")

	// ErrNoPendingTransfer is returned by Proxy.SocketFor when the
	// digest is not registered: never added, or already removed.
	ErrNoPendingTransfer = errors.New("no pending transfer for digest")
)

// FeatureNotSupportedError reports that the remote entity does not
// advertise a feature required by the negotiation.
type FeatureNotSupportedError struct {
	Feature string
	JID     xmpp.JID
}

func (e *FeatureNotSupportedError) Error() string {
	return fmt.Sprintf("feature %s not supported by %s", e.Feature, e.JID)
}

// UnknownUsedHostError reports a used-host reply naming a JID that was
// not part of the offered stream host list.
type UnknownUsedHostError struct {
	Reported xmpp.JID
}

func (e *UnknownUsedHostError) Error() string {
	return fmt.Sprintf("remote user responded with unknown host %s", e.Reported)
}

// HandshakeError is a SOCKS5 protocol violation observed by the
// client during the greeting or the connect reply.
type HandshakeError struct {
	At  string // "greeting" or "reply"
	Rep uint8  // reply status, for At == "reply"
}

func (e *HandshakeError) Error() string {
	if e.At == "reply" {
		return fmt.Sprintf("SOCKS5 handshake failed at %s, status %d", e.At, e.Rep)
	}
	return fmt.Sprintf("SOCKS5 handshake failed at %s", e.At)
}
