// Package identity generates the receiver's ephemeral TLS identity and
// pairing PIN at startup (spec §4.B).
//
// The PIN is derived from wall-clock nanoseconds only (no crypto/rand).
// Certificate generation is kept stdlib-only: no repo in the
// retrieval pack constructs a self-signed certificate via a third-party
// X.509 library, so crypto/tls + crypto/x509 + crypto/ed25519 is the
// grounded choice (see DESIGN.md).
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"fmt"
	"math/big"
	"net"
	"strings"
	"time"

	"github.com/duallink/duallink/internal/model"
)

// UsbGadgetFallbackAddr is the conventional address DualLink receivers
// advertise for USB-tethered senders, per spec §4.B SAN requirements.
const UsbGadgetFallbackAddr = "192.168.2.1"

// StableDNSLabel is the SAN DNS label every receiver certificate carries.
const StableDNSLabel = "duallink-receiver.local"

// Identity bundles the generated certificate, its key, and the session
// identity (PIN + fingerprint) derived from it.
type Identity struct {
	Certificate tls.Certificate
	model.SessionIdentity
}

// Generate creates a fresh Ed25519 key pair and self-signed certificate
// with the SANs required by spec §4.B, computes its SHA-256 fingerprint,
// and derives a 6-digit pairing PIN from the wall-clock nanoseconds at
// call time. This fails only on crypto-provider init (spec §7: Fatal) —
// there is no retry.
func Generate() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("identity: generate ed25519 key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return nil, fmt.Errorf("identity: generate serial: %w", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: StableDNSLabel},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(10 * 365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{StableDNSLabel, "localhost"},
		IPAddresses:  []net.IP{net.ParseIP(UsbGadgetFallbackAddr), net.ParseIP("127.0.0.1")},
		IsCA:         true,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, pub, priv)
	if err != nil {
		return nil, fmt.Errorf("identity: create certificate: %w", err)
	}

	cert := tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  priv,
	}

	fp := Fingerprint(der)
	pin := GeneratePIN()

	return &Identity{
		Certificate: cert,
		SessionIdentity: model.SessionIdentity{
			PairingPIN:     pin,
			TLSFingerprint: fp,
		},
	}, nil
}

// Fingerprint renders the SHA-256 digest of a DER certificate as
// colon-separated uppercase hex, e.g. "AB:CD:...".
func Fingerprint(der []byte) string {
	sum := sha256.Sum256(der)
	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = strings.ToUpper(hex.EncodeToString([]byte{b}))
	}
	return strings.Join(parts, ":")
}

// GeneratePIN derives a 6-digit decimal PIN from the low bits of the
// wall-clock nanoseconds at call time. It is a UX nonce, not a crypto
// secret — its only job is to authorise this process's hello (spec §4.B).
func GeneratePIN() string {
	n := time.Now().UnixNano()
	const mod = 1_000_000
	v := n % mod
	if v < 0 {
		v = -v
	}
	return fmt.Sprintf("%06d", v)
}
