package bytestreams

import (
	"crypto/sha1" //nolint:gosec // XEP-0065 mandates SHA-1 for the dst.addr digest.
	"encoding/hex"

	"github.com/ge0rg/smack4/xmpp"
)

// Digest derives the SOCKS5 destination address that rendezvouses the
// two halves of a bytestream: the lowercase hex SHA-1 over the session
// ID concatenated with the initiator's and the target's JIDs.
func Digest(sessionID string, initiator, target xmpp.JID) string {
	h := sha1.New() //nolint:gosec
	h.Write([]byte(sessionID))
	h.Write([]byte(initiator.String()))
	h.Write([]byte(target.String()))
	return hex.EncodeToString(h.Sum(nil))
}
