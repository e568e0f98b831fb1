package mdns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstHexChars_StripsColons(t *testing.T) {
	fp := "AB:CD:EF:01:02:03:04:05:06:07:08:09:0A:0B:0C:0D:0E:0F"
	assert.Equal(t, "ABCDEF0102030405", firstHexChars(fp, 16))
}

func TestTXTRecord_Map(t *testing.T) {
	r := TXTRecord{Version: "1", Displays: 3, SignalingPort: 7879, Host: "192.168.1.5", FingerprintHex: "ABCDEF0102030405"}
	m := r.Map()
	assert.Equal(t, "1", m["version"])
	assert.Equal(t, "3", m["displays"])
	assert.Equal(t, "7879", m["port"])
	assert.Equal(t, "192.168.1.5", m["host"])
	assert.Equal(t, "ABCDEF0102030405", m["fp"])
}
