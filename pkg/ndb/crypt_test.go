package ndb_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbridges/pasta/pkg/ndb"
)

func TestEncryptLiteral(t *testing.T) {
	plain := []byte{1, 17, 0x80, 0x7F}
	assert.Equal(t, []byte{54, 0xF2, 0xE2, 0xCD}, ndb.Encrypt(plain))
	assert.Equal(t, []byte{1, 17, 0x80, 0x7F}, plain, "input must not be modified")
}

func TestCryptInPlace(t *testing.T) {
	p := []byte{1, 17, 0x80, 0x7F}
	ndb.EncryptInPlace(p)
	assert.Equal(t, []byte{54, 0xF2, 0xE2, 0xCD}, p)
	ndb.DecryptInPlace(p)
	assert.Equal(t, []byte{1, 17, 0x80, 0x7F}, p)
}

func TestCryptRoundTripEveryByte(t *testing.T) {
	seen := make(map[byte]bool)
	for i := 0; i < 256; i++ {
		b := []byte{byte(i)}
		enc := ndb.Encrypt(b)
		require.Equal(t, b, ndb.Decrypt(enc), "byte 0x%02x", i)
		require.Equal(t, b, ndb.Encrypt(ndb.Decrypt(b)), "byte 0x%02x", i)
		seen[enc[0]] = true
	}
	assert.Len(t, seen, 256, "encryption must be a permutation")
}

func TestCryptRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	orig := make([]byte, 1025)
	rng.Read(orig)
	assert.Equal(t, orig, ndb.Encrypt(ndb.Decrypt(orig)))
	assert.Equal(t, orig, ndb.Decrypt(ndb.Encrypt(orig)))
}

func TestCipherDecode(t *testing.T) {
	data := []byte("hello")
	assert.Equal(t, data, ndb.CipherNone.Decode(data))
	assert.Equal(t, data, ndb.CipherPermute.Decode(ndb.CipherPermute.Encode(data)))
	assert.NotEqual(t, data, ndb.CipherPermute.Encode(data))

	assert.Equal(t, "none", ndb.CipherNone.String())
	assert.Equal(t, "permute", ndb.CipherPermute.String())
	assert.Equal(t, "cyclic", ndb.CipherCyclic.String())
}
