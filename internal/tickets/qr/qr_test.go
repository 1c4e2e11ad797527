package qr

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encryptPayload(t *testing.T, gen *Generator, payload Payload) string {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	encoded, err := encryptAES(data, gen.secret)
	require.NoError(t, err)
	return encoded
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	gen := NewGenerator("gate-secret")

	payload := Payload{
		TokenID:   42,
		Owner:     "0xOwner",
		IssuedAt:  time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		ExpiresAt: time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC),
	}

	decrypted, err := gen.Decrypt(encryptPayload(t, gen, payload))
	require.NoError(t, err)
	assert.Equal(t, payload.TokenID, decrypted.TokenID)
	assert.Equal(t, payload.Owner, decrypted.Owner)
	assert.True(t, payload.ExpiresAt.Equal(decrypted.ExpiresAt))
}

func TestDecryptWrongSecret(t *testing.T) {
	gen := NewGenerator("gate-secret")
	other := NewGenerator("different-secret")

	payload := Payload{TokenID: 1, Owner: "0xOwner"}

	decrypted, err := other.Decrypt(encryptPayload(t, gen, payload))
	if err == nil {
		assert.NotEqual(t, payload.Owner, decrypted.Owner)
	}
}

func TestGenerateEncryptedQRProducesPNG(t *testing.T) {
	gen := NewGenerator("gate-secret")

	png, err := gen.GenerateEncryptedQR(Payload{TokenID: 7, Owner: "0xOwner"})
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
