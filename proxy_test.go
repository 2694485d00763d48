package bytestreams

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ge0rg/smack4/statute"
)

func TestProxyStartStop(t *testing.T) {
	p := NewProxy()
	require.False(t, p.Running())
	require.Equal(t, 0, p.Port())

	require.NoError(t, p.Start())
	require.True(t, p.Running())
	require.NotEqual(t, 0, p.Port())

	// starting a running proxy is a no-op
	port := p.Port()
	require.NoError(t, p.Start())
	assert.Equal(t, port, p.Port())

	p.Stop()
	assert.False(t, p.Running())
	assert.Equal(t, 0, p.Port())

	// stopping twice is harmless
	p.Stop()
}

func TestProxyLocalAddresses(t *testing.T) {
	p := NewProxy()
	require.NoError(t, p.Start())
	defer p.Stop()

	addrs := p.LocalAddresses()
	require.Len(t, addrs, 1)
	loopback := addrs[0]

	p.AddLocalAddress("10.0.0.1")
	p.AddLocalAddress("fe80::1")
	// duplicates are dropped
	p.AddLocalAddress("10.0.0.1")
	p.AddLocalAddress(loopback)

	assert.Equal(t, []string{loopback, "10.0.0.1", "fe80::1"}, p.LocalAddresses())
}

func TestProxyPairsTransferWithClient(t *testing.T) {
	p := NewProxy()
	require.NoError(t, p.Start())
	defer p.Stop()

	digest := Digest("sid", "initiator@example.org/res", "target@example.org/res")
	p.AddTransfer(digest)

	host := StreamHost{JID: "initiator@example.org/res", Host: "127.0.0.1", Port: p.Port()}
	targetConn, err := Client{StreamHost: host, Digest: digest}.Connect(context.Background())
	require.NoError(t, err)
	defer targetConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	proxySide, err := p.SocketFor(ctx, digest)
	require.NoError(t, err)
	defer proxySide.Close()

	_, err = targetConn.Write([]byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	_ = proxySide.SetDeadline(time.Now().Add(time.Second))
	_, err = proxySide.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), buf)
}

func TestProxyRejectsUnknownDigest(t *testing.T) {
	p := NewProxy()
	require.NoError(t, p.Start())
	defer p.Stop()

	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(p.Port())))
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(time.Second))

	_, err = conn.Write(statute.NewMethodRequest(statute.VersionSocks5, []byte{statute.MethodNoAuth}).Bytes())
	require.NoError(t, err)
	reply, err := statute.ParseMethodReply(conn)
	require.NoError(t, err)
	require.Equal(t, statute.MethodNoAuth, reply.Method)

	req := statute.Request{
		Version:    statute.VersionSocks5,
		Command:    statute.CommandConnect,
		DstAddress: statute.DomainAddr("deadbeef", 0),
	}
	_, err = conn.Write(req.Bytes())
	require.NoError(t, err)

	rsp, err := statute.ParseReply(conn)
	require.NoError(t, err)
	assert.Equal(t, statute.RepHostUnreachable, rsp.Response)
}

func TestProxyRemoveTransfer(t *testing.T) {
	p := NewProxy()
	require.NoError(t, p.Start())
	defer p.Stop()

	p.AddTransfer("digest-1")
	p.RemoveTransfer("digest-1")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := p.SocketFor(ctx, "digest-1")
	require.ErrorIs(t, err, ErrNoPendingTransfer)

	// removing twice is harmless
	p.RemoveTransfer("digest-1")
}

func TestProxySocketForTimesOut(t *testing.T) {
	p := NewProxy()
	require.NoError(t, p.Start())
	defer p.Stop()

	p.AddTransfer("digest-2")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := p.SocketFor(ctx, "digest-2")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProxyStopCancelsWaiters(t *testing.T) {
	p := NewProxy()
	require.NoError(t, p.Start())

	p.AddTransfer("digest-3")
	errCh := make(chan error, 1)
	go func() {
		_, err := p.SocketFor(context.Background(), "digest-3")
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	p.Stop()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrProxyStopped)
	case <-time.After(time.Second):
		t.Fatal("waiter not canceled by Stop")
	}
}
