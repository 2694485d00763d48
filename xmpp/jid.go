package xmpp

import "strings"

// JID is an XMPP address of the form localpart@domainpart/resourcepart.
// The zero value is the empty JID.
type JID string

// Domain returns the bare domain part of the JID.
func (j JID) Domain() JID {
	s := string(j)
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return JID(s)
}

// Bare returns the JID with the resource part stripped.
func (j JID) Bare() JID {
	s := string(j)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return JID(s)
}

// Resource returns the resource part, or "" for a bare JID.
func (j JID) Resource() string {
	s := string(j)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return ""
}

// IsFull reports whether the JID carries a resource part.
func (j JID) IsFull() bool { return j.Resource() != "" }

func (j JID) String() string { return string(j) }
