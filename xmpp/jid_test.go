package xmpp

import "testing"

func TestJID(t *testing.T) {
	tests := []struct {
		name     string
		jid      JID
		domain   JID
		bare     JID
		resource string
		full     bool
	}{
		{"full", "romeo@example.net/orchard", "example.net", "romeo@example.net", "orchard", true},
		{"bare", "romeo@example.net", "example.net", "romeo@example.net", "", false},
		{"domain", "proxy.example.net", "proxy.example.net", "proxy.example.net", "", false},
		{"domain full", "example.net/admin", "example.net", "example.net", "admin", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.jid.Domain(); got != tt.domain {
				t.Errorf("Domain() = %q, want %q", got, tt.domain)
			}
			if got := tt.jid.Bare(); got != tt.bare {
				t.Errorf("Bare() = %q, want %q", got, tt.bare)
			}
			if got := tt.jid.Resource(); got != tt.resource {
				t.Errorf("Resource() = %q, want %q", got, tt.resource)
			}
			if got := tt.jid.IsFull(); got != tt.full {
				t.Errorf("IsFull() = %v, want %v", got, tt.full)
			}
			if got := tt.jid.String(); got != string(tt.jid) {
				t.Errorf("String() = %q, want %q", got, string(tt.jid))
			}
		})
	}
}
