// Package mdns is a thin _duallink._tcp.local. advertiser (spec §6). It
// is explicitly named in spec §1 as "thin glue — contract summarised
// only", so this implementation is intentionally minimal: it resolves
// the outbound LAN IP via a UDP "connected" dial (the standard Go idiom
// for finding the default route's local address, used here instead of
// parsing interface lists by hand), builds the TXT record, and can send
// a caller-encoded one-shot payload to the standard mDNS multicast group
// (224.0.0.251:5353). It does not join the group or encode DNS-SD
// records itself.
//
// Grounded on other_examples' rcarmo-codebits-tv mcast.go, which wraps a
// net.UDPConn in a golang.org/x/net/ipv4.PacketConn to set multicast TTL
// and loopback before sending — the same pattern used here for the mDNS
// announcement socket.
package mdns

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
)

// mdnsMulticastAddr is the standard mDNS group (RFC 6762 §3).
const mdnsMulticastAddr = "224.0.0.251:5353"

// Announcer holds a joined mDNS multicast socket ready to send
// one-shot TXT announcements (spec §6: "thin glue").
type Announcer struct {
	conn *net.UDPConn
	pc   *ipv4.PacketConn
}

// NewAnnouncer opens a UDP socket addressed to the mDNS multicast group
// (without joining it) with TTL 255 (per RFC 6762 §11) and loopback
// enabled, so a receiver and sender on the same
// host can exercise pairing during local development.
func NewAnnouncer() (*Announcer, error) {
	addr, err := net.ResolveUDPAddr("udp4", mdnsMulticastAddr)
	if err != nil {
		return nil, fmt.Errorf("mdns: resolve multicast addr: %w", err)
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("mdns: dial multicast group: %w", err)
	}
	pc := ipv4.NewPacketConn(conn)
	if err := pc.SetMulticastTTL(255); err != nil {
		conn.Close()
		return nil, fmt.Errorf("mdns: set multicast ttl: %w", err)
	}
	_ = pc.SetMulticastLoopback(true)
	return &Announcer{conn: conn, pc: pc}, nil
}

// Close releases the multicast socket.
func (a *Announcer) Close() error {
	return a.conn.Close()
}

// Announce sends one raw DNS-SD style announcement payload (the caller
// is responsible for encoding rec.Map() into whatever wire format its
// resolver stack expects; this repo does not implement the mDNS wire
// format itself per spec §6).
func (a *Announcer) Announce(payload []byte) error {
	_, err := a.conn.Write(payload)
	if err != nil {
		return fmt.Errorf("mdns: send announcement: %w", err)
	}
	return nil
}

// ServiceType is the mDNS service type DualLink advertises.
const ServiceType = "_duallink._tcp.local."

// TXTRecord is the set of TXT keys spec §6 requires:
// {version, displays, port, host, fp}.
type TXTRecord struct {
	Version        string
	Displays       int
	SignalingPort  int
	Host           string
	FingerprintHex string // first 16 hex chars of the TLS fingerprint
}

// Map renders the record as the string map a TXT-record publisher
// expects.
func (r TXTRecord) Map() map[string]string {
	return map[string]string{
		"version":  r.Version,
		"displays": fmt.Sprintf("%d", r.Displays),
		"port":     fmt.Sprintf("%d", r.SignalingPort),
		"host":     r.Host,
		"fp":       r.FingerprintHex,
	}
}

// NewTXTRecord builds the TXT record for a receiver with the given
// display count, primary signaling port, and full colon-separated
// fingerprint (truncated here to its first 16 hex characters per spec
// §6).
func NewTXTRecord(displays, signalingPort int, fingerprint string) (TXTRecord, error) {
	host, err := OutboundIP()
	if err != nil {
		return TXTRecord{}, err
	}
	return TXTRecord{
		Version:        "1",
		Displays:       displays,
		SignalingPort:  signalingPort,
		Host:           host,
		FingerprintHex: firstHexChars(fingerprint, 16),
	}, nil
}

// OutboundIP returns the local address the OS would use to reach the
// public internet, a standard Go idiom for picking "the" LAN IP without
// enumerating interfaces.
func OutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", fmt.Errorf("mdns: determine outbound address: %w", err)
	}
	defer conn.Close()
	local := conn.LocalAddr().(*net.UDPAddr)
	return local.IP.String(), nil
}

// firstHexChars strips colon separators from a fingerprint string and
// returns its first n hex characters.
func firstHexChars(fingerprint string, n int) string {
	out := make([]byte, 0, n)
	for i := 0; i < len(fingerprint) && len(out) < n; i++ {
		c := fingerprint[i]
		if c == ':' {
			continue
		}
		out = append(out, c)
	}
	return string(out)
}
