package bytestreams

import (
	"sync"

	cache "github.com/patrickmn/go-cache"

	"github.com/ge0rg/smack4/xmpp"
)

// blacklist remembers JIDs that turned out not to be SOCKS5 proxies.
// Entries never expire for the life of the manager.
type blacklist struct {
	c *cache.Cache
}

func newBlacklist() *blacklist {
	return &blacklist{c: cache.New(cache.NoExpiration, 0)}
}

func (b *blacklist) add(jid xmpp.JID) {
	b.c.Set(jid.String(), struct{}{}, cache.NoExpiration)
}

func (b *blacklist) contains(jid xmpp.JID) bool {
	_, ok := b.c.Get(jid.String())
	return ok
}

// lastProxy holds the most recently successful remote proxy JID.
type lastProxy struct {
	mu  sync.Mutex
	jid xmpp.JID
}

func (l *lastProxy) set(jid xmpp.JID) {
	l.mu.Lock()
	l.jid = jid
	l.mu.Unlock()
}

func (l *lastProxy) get() xmpp.JID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.jid
}
