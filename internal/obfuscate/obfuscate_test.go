package obfuscate

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randKey(t *testing.T) [32]byte {
	t.Helper()
	var k [32]byte
	_, err := rand.Read(k[:])
	require.NoError(t, err)
	return k
}

func TestInvolution(t *testing.T) {
	key := randKey(t)
	plain := []byte("Hello, Hubert — obfuscate me")

	obf := Apply(key, plain)
	require.Len(t, obf, len(plain))
	require.NotEqual(t, plain, obf)

	back := Remove(key, obf)
	require.Equal(t, plain, back)
}

func TestEmptyInput(t *testing.T) {
	key := randKey(t)
	require.Empty(t, Apply(key, nil))
}

func TestDifferentKeysDifferentOutput(t *testing.T) {
	plain := make([]byte, 256)
	_, err := rand.Read(plain)
	require.NoError(t, err)

	k1, k2 := randKey(t), randKey(t)
	require.NotEqual(t, Apply(k1, plain), Apply(k2, plain))
}

func TestLengthPreservingAcrossSizes(t *testing.T) {
	key := randKey(t)
	for _, n := range []int{0, 1, 15, 16, 17, 1000, 1001, 65536} {
		plain := make([]byte, n)
		_, err := rand.Read(plain)
		require.NoError(t, err)
		require.Len(t, Apply(key, plain), n)
	}
}
