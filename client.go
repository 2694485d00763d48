package bytestreams

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/ge0rg/smack4/statute"
)

// Client opens the initiator's connection to a remote stream host and
// runs the SOCKS5 handshake addressing the transfer digest.
type Client struct {
	StreamHost StreamHost
	Digest     string
}

// Connect dials the stream host and performs the SOCKS5 handshake.
// The returned conn is ready to carry stream payload. ctx bounds the
// dial and the handshake together.
func (c Client) Connect(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.StreamHost.Addr())
	if err != nil {
		return nil, fmt.Errorf("connect to stream host %s: %w", c.StreamHost.Addr(), err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if err := c.handshake(conn); err != nil {
		conn.Close()
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})
	return conn, nil
}

func (c Client) handshake(conn net.Conn) error {
	_, err := conn.Write(statute.NewMethodRequest(statute.VersionSocks5, []byte{statute.MethodNoAuth}).Bytes())
	if err != nil {
		return err
	}
	reply, err := statute.ParseMethodReply(conn)
	if err != nil {
		return fmt.Errorf("read greeting reply: %w", err)
	}
	if reply.Ver != statute.VersionSocks5 || reply.Method != statute.MethodNoAuth {
		return &HandshakeError{At: "greeting"}
	}

	req := statute.Request{
		Version:    statute.VersionSocks5,
		Command:    statute.CommandConnect,
		DstAddress: statute.DomainAddr(c.Digest, 0),
	}
	if _, err = conn.Write(req.Bytes()); err != nil {
		return err
	}
	// the reply's remaining address bytes are consumed per ATYP
	rsp, err := statute.ParseReply(conn)
	if err != nil {
		return fmt.Errorf("read connect reply: %w", err)
	}
	if rsp.Response != statute.RepSuccess {
		return &HandshakeError{At: "reply", Rep: rsp.Response}
	}
	return nil
}
