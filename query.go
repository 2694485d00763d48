package bytestreams

import (
	"encoding/xml"
	"net"
	"strconv"

	"github.com/ge0rg/smack4/xmpp"
)

// Namespace is the XEP-0065 bytestreams namespace.
const Namespace = "http://jabber.org/protocol/bytestreams"

// Mode is the transport mode of an offered bytestream.
type Mode string

// ModeTCP is the only mode the negotiation offers.
const ModeTCP Mode = "tcp"

// StreamHost is one (jid, host, port) triple the target may connect
// to in order to reach the initiator's stream.
type StreamHost struct {
	JID  xmpp.JID `xml:"jid,attr"`
	Host string   `xml:"host,attr"`
	Port int      `xml:"port,attr"`
}

// Addr returns the dialable host:port of the stream host.
func (s StreamHost) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// UsedHost names the stream host the target picked from the offer.
type UsedHost struct {
	JID xmpp.JID `xml:"jid,attr"`
}

// Activate asks the used proxy to splice initiator and target sockets.
type Activate struct {
	Target xmpp.JID `xml:",chardata"`
}

// Query is the bytestreams IQ payload. Exactly one child group is
// populated depending on direction: offers carry StreamHosts,
// used-host replies carry Used, stream host info requests are empty,
// activations carry Activate.
type Query struct {
	XMLName     xml.Name     `xml:"http://jabber.org/protocol/bytestreams query"`
	SID         string       `xml:"sid,attr,omitempty"`
	Mode        Mode         `xml:"mode,attr,omitempty"`
	StreamHosts []StreamHost `xml:"streamhost"`
	Used        *UsedHost    `xml:"streamhost-used,omitempty"`
	Activate    *Activate    `xml:"activate,omitempty"`
}
