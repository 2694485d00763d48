package bytestreams

import (
	"context"

	"github.com/ge0rg/smack4/disco"
	"github.com/ge0rg/smack4/xmpp"
)

// resolveProxies returns the JIDs of discovered SOCKS5 proxies in
// discovery order. Candidates already known not to be SOCKS5 proxies
// are skipped without another identity probe; a candidate whose probe
// fails is skipped for this attempt only.
func (m *Manager) resolveProxies(ctx context.Context) ([]xmpp.JID, error) {
	items, err := m.disco.Items(ctx, m.conn.ServiceJID())
	if err != nil {
		return nil, err
	}
	seen := make(map[xmpp.JID]struct{}, len(items))
	var proxies []xmpp.JID
	for _, item := range items {
		if _, dup := seen[item.JID]; dup {
			continue
		}
		seen[item.JID] = struct{}{}
		if m.blacklist.contains(item.JID) {
			continue
		}
		identities, err := m.disco.Identities(ctx, item.JID)
		if err != nil {
			m.errorf("identity probe of %s: %v", item.JID, err)
			continue
		}
		if isProxyIdentity(identities) {
			proxies = append(proxies, item.JID)
		} else {
			m.blacklist.add(item.JID)
		}
	}
	return proxies, nil
}

func isProxyIdentity(identities []disco.Identity) bool {
	for _, id := range identities {
		if id.Category == "proxy" && id.Type == "bytestreams" {
			return true
		}
	}
	return false
}

// resolveStreamHosts builds the ordered offer list: local addresses
// first when announced, then the stream hosts of each proxy, with the
// most recently successful proxy moved to the front of the remote
// section.
func (m *Manager) resolveStreamHosts(ctx context.Context, proxies []xmpp.JID) []StreamHost {
	var local, remote []StreamHost
	if m.AnnounceLocalStreamHost() {
		local = m.localStreamHosts()
	}
	for _, proxy := range proxies {
		hosts, err := m.streamHostInfo(ctx, proxy)
		if err != nil {
			// transient fault, not a classification
			m.errorf("stream host info of %s: %v", proxy, err)
			continue
		}
		remote = append(remote, hosts...)
	}
	if m.ProxyPrioritizationEnabled() {
		if last := m.lastProxy.get(); last != "" {
			remote = moveToFront(remote, last)
		}
	}
	return append(local, remote...)
}

// streamHostInfo fetches the (address, port) entries the proxy
// advertises for itself.
func (m *Manager) streamHostInfo(ctx context.Context, proxy xmpp.JID) ([]StreamHost, error) {
	res, err := m.conn.Request(ctx, xmpp.NewIQ(xmpp.IQGet, proxy, Query{}))
	if err != nil {
		return nil, err
	}
	q, _ := res.Payload.(Query)
	return q.StreamHosts, nil
}

// localStreamHosts lists one stream host per advertised local proxy
// address, all carrying the initiator's own JID.
func (m *Manager) localStreamHosts() []StreamHost {
	proxy := m.LocalProxy()
	if proxy == nil || !proxy.Running() {
		return nil
	}
	port := proxy.Port()
	me := m.conn.LocalJID()
	addresses := proxy.LocalAddresses()
	hosts := make([]StreamHost, 0, len(addresses))
	for _, addr := range addresses {
		hosts = append(hosts, StreamHost{JID: me, Host: addr, Port: port})
	}
	return hosts
}

// moveToFront stably moves the hosts of jid to the head of the list.
func moveToFront(hosts []StreamHost, jid xmpp.JID) []StreamHost {
	head := make([]StreamHost, 0, len(hosts))
	var tail []StreamHost
	for _, h := range hosts {
		if h.JID == jid {
			head = append(head, h)
		} else {
			tail = append(tail, h)
		}
	}
	return append(head, tail...)
}
