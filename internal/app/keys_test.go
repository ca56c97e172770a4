package app

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeKeyHex(t *testing.T) {
	hexKey := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	decoded, err := DecodeKey(hexKey)
	require.NoError(t, err)
	require.Len(t, decoded, 32)

	expected, _ := hex.DecodeString(hexKey)
	require.Equal(t, expected, decoded)
}

func TestDecodeKeyBase64(t *testing.T) {
	rawKey := make([]byte, 32)
	for i := range rawKey {
		rawKey[i] = byte(i)
	}

	decoded, err := DecodeKey(base64.StdEncoding.EncodeToString(rawKey))
	require.NoError(t, err)
	require.Equal(t, rawKey, decoded)
}

func TestDecodeKeyRawBytes(t *testing.T) {
	rawKey := "this-is-a-raw-passphrase!"
	decoded, err := DecodeKey(rawKey)
	require.NoError(t, err)
	require.Equal(t, []byte(rawKey), decoded)
}

func TestDecodeKeyEmpty(t *testing.T) {
	_, err := DecodeKey("   ")
	require.Error(t, err)
}
