package statute

import (
	"fmt"
	"io"
	"net"
)

// Request represents the SOCKS5 request, it contains everything that is not payload
// The SOCKS5 request is formed as follows:
//	+-----+-----+-------+------+----------+----------+
//	| VER | CMD |  RSV  | ATYP | DST.ADDR | DST.PORT |
//	+-----+-----+-------+------+----------+----------+
//	|  1  |  1  | X'00' |  1   | Variable |    2     |
//	+-----+-----+-------+------+----------+----------+
type Request struct {
	// Version of socks protocol for message
	Version uint8
	// Socks Command "connect"
	Command uint8
	// Reserved byte
	Reserved uint8
	// DstAddress in socks message
	DstAddress AddrSpec
}

// ParseRequest to request from io.Reader
func ParseRequest(r io.Reader) (req Request, err error) {
	// Read the version and command
	tmp := []byte{0, 0}
	if _, err = io.ReadFull(r, tmp); err != nil {
		return req, fmt.Errorf("failed to get request version and command, %v", err)
	}
	req.Version = tmp[0]
	req.Command = tmp[1]
	if req.Version != VersionSocks5 {
		return req, fmt.Errorf("unrecognized SOCKS version[%d]", req.Version)
	}
	// Read reserved and address type
	if _, err = io.ReadFull(r, tmp); err != nil {
		return req, fmt.Errorf("failed to get request RSV and address type, %v", err)
	}
	req.Reserved = tmp[0]
	req.DstAddress.AddrType = tmp[1]

	req.DstAddress, err = parseAddr(r, req.DstAddress.AddrType)
	return req, err
}

// Bytes returns a slice of request
func (h Request) Bytes() []byte {
	return appendAddr([]byte{h.Version, h.Command, h.Reserved}, h.DstAddress)
}

// Reply represents the SOCKS5 reply, it contains everything that is not payload
// The SOCKS5 response is formed as follows:
//	+-----+-----+-------+------+----------+----------+
//	| VER | REP |  RSV  | ATYP | BND.ADDR | BND.PORT |
//	+-----+-----+-------+------+----------+----------+
//	|  1  |  1  | X'00' |  1   | Variable |    2     |
//	+-----+-----+-------+------+----------+----------+
type Reply struct {
	// Version of socks protocol for message
	Version uint8
	// Socks Response status
	Response uint8
	// Reserved byte
	Reserved uint8
	// Bind Address in socks message
	BndAddress AddrSpec
}

// Bytes returns a slice of reply
func (h Reply) Bytes() []byte {
	return appendAddr([]byte{h.Version, h.Response, h.Reserved}, h.BndAddress)
}

// ParseReply to reply from io.Reader
func ParseReply(r io.Reader) (rep Reply, err error) {
	// Read the version and response status
	tmp := []byte{0, 0}
	if _, err = io.ReadFull(r, tmp); err != nil {
		return rep, fmt.Errorf("failed to get reply version and response, %v", err)
	}
	rep.Version = tmp[0]
	rep.Response = tmp[1]
	if rep.Version != VersionSocks5 {
		return rep, fmt.Errorf("unrecognized SOCKS version[%d]", rep.Version)
	}
	// Read reserved and address type
	if _, err = io.ReadFull(r, tmp); err != nil {
		return rep, fmt.Errorf("failed to get reply RSV and address type, %v", err)
	}
	rep.Reserved = tmp[0]
	rep.BndAddress.AddrType = tmp[1]

	rep.BndAddress, err = parseAddr(r, rep.BndAddress.AddrType)
	return rep, err
}

func parseAddr(r io.Reader, atyp byte) (a AddrSpec, err error) {
	a.AddrType = atyp
	switch atyp {
	case ATYPDomain:
		tmp := []byte{0}
		if _, err = io.ReadFull(r, tmp); err != nil {
			return a, fmt.Errorf("failed to get address, %v", err)
		}
		domainLen := int(tmp[0])
		addr := make([]byte, domainLen+2)
		if _, err = io.ReadFull(r, addr); err != nil {
			return a, fmt.Errorf("failed to get address, %v", err)
		}
		a.FQDN = string(addr[:domainLen])
		a.Port = BuildPort(addr[domainLen], addr[domainLen+1])
	case ATYPIPv4:
		addr := make([]byte, net.IPv4len+2)
		if _, err = io.ReadFull(r, addr); err != nil {
			return a, fmt.Errorf("failed to get address, %v", err)
		}
		a.IP = net.IPv4(addr[0], addr[1], addr[2], addr[3])
		a.Port = BuildPort(addr[net.IPv4len], addr[net.IPv4len+1])
	case ATYPIPv6:
		addr := make([]byte, net.IPv6len+2)
		if _, err = io.ReadFull(r, addr); err != nil {
			return a, fmt.Errorf("failed to get address, %v", err)
		}
		a.IP = addr[:net.IPv6len]
		a.Port = BuildPort(addr[net.IPv6len], addr[net.IPv6len+1])
	default:
		return a, ErrUnrecognizedAddrType
	}
	return a, nil
}

func appendAddr(b []byte, a AddrSpec) []byte {
	b = append(b, a.AddrType)
	switch a.AddrType {
	case ATYPDomain:
		b = append(b, byte(len(a.FQDN)))
		b = append(b, []byte(a.FQDN)...)
	case ATYPIPv4:
		b = append(b, a.IP.To4()...)
	case ATYPIPv6:
		b = append(b, a.IP.To16()...)
	}
	hiPort, loPort := BreakPort(a.Port)
	return append(b, hiPort, loPort)
}
