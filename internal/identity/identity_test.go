package identity

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_ProducesValidIdentity(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)
	require.NotNil(t, id)

	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), id.PairingPIN)
	assert.Regexp(t, regexp.MustCompile(`^([0-9A-F]{2}:){31}[0-9A-F]{2}$`), id.TLSFingerprint)
	assert.NotEmpty(t, id.Certificate.Certificate)
}

func TestGeneratePIN_IsSixDigits(t *testing.T) {
	for i := 0; i < 20; i++ {
		pin := GeneratePIN()
		assert.Len(t, pin, 6)
		assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), pin)
	}
}

func TestFingerprint_IsDeterministicForSameInput(t *testing.T) {
	der := []byte("some-fake-der-bytes-for-testing")
	assert.Equal(t, Fingerprint(der), Fingerprint(der))
}
