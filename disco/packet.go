// Package disco implements the slice of XEP-0030 service discovery
// the bytestream negotiation depends on: info and items queries plus
// the per-connection feature registry.
package disco

import (
	"encoding/xml"

	"github.com/ge0rg/smack4/xmpp"
)

const (
	// NamespaceInfo is the disco#info query namespace.
	NamespaceInfo = "http://jabber.org/protocol/disco#info"
	// NamespaceItems is the disco#items query namespace.
	NamespaceItems = "http://jabber.org/protocol/disco#items"
)

// InfoQuery is the payload of a disco#info GET.
type InfoQuery struct {
	XMLName xml.Name `xml:"http://jabber.org/protocol/disco#info query"`
	Node    string   `xml:"node,attr,omitempty"`
}

// Info is the payload of a disco#info result.
type Info struct {
	XMLName    xml.Name   `xml:"http://jabber.org/protocol/disco#info query"`
	Identities []Identity `xml:"identity"`
	Features   []Feature  `xml:"feature"`
}

// Feature is a disco#info feature element.
type Feature struct {
	Var string `xml:"var,attr"`
}

// HasFeature reports whether the feature var is advertised.
func (i Info) HasFeature(feature string) bool {
	for _, f := range i.Features {
		if f.Var == feature {
			return true
		}
	}
	return false
}

// Identity is a disco#info identity element.
type Identity struct {
	Category string `xml:"category,attr"`
	Type     string `xml:"type,attr"`
	Name     string `xml:"name,attr,omitempty"`
}

// ItemsQuery is the payload of a disco#items GET.
type ItemsQuery struct {
	XMLName xml.Name `xml:"http://jabber.org/protocol/disco#items query"`
	Node    string   `xml:"node,attr,omitempty"`
}

// Items is the payload of a disco#items result.
type Items struct {
	XMLName xml.Name `xml:"http://jabber.org/protocol/disco#items query"`
	Items   []Item   `xml:"item"`
}

// Item is a single disco#items entry.
type Item struct {
	JID  xmpp.JID `xml:"jid,attr"`
	Name string   `xml:"name,attr,omitempty"`
	Node string   `xml:"node,attr,omitempty"`
}
