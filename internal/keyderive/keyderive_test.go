package keyderive

import (
	"testing"

	"github.com/BlockchainCommons/hubert-go/internal/arid"
	"github.com/stretchr/testify/require"
)

func mustArid(t *testing.T) arid.Arid {
	t.Helper()
	a, err := arid.New()
	require.NoError(t, err)
	return a
}

func TestDeterminism(t *testing.T) {
	a := mustArid(t)
	k1 := Derive(a)
	k2 := Derive(a)
	require.Equal(t, k1, k2)
}

func TestDomainSeparation(t *testing.T) {
	a := mustArid(t)
	k := Derive(a)
	require.NotEqual(t, k.DHTSeed, k.ObfuscationKey)
}

func TestDomainSeparationAcrossManyArids(t *testing.T) {
	seen := map[[32]byte]bool{}
	for i := 0; i < 10_000; i++ {
		a := mustArid(t)
		k := Derive(a)
		require.False(t, seen[k.DHTSeed], "DHT seed collided across purposes/arids")
		require.False(t, seen[k.ObfuscationKey], "obfuscation key collided across purposes/arids")
		seen[k.DHTSeed] = true
		seen[k.ObfuscationKey] = true
	}
}

func TestDifferentAridsDiffer(t *testing.T) {
	a1, a2 := mustArid(t), mustArid(t)
	k1, k2 := Derive(a1), Derive(a2)
	require.NotEqual(t, k1.DHTSeed, k2.DHTSeed)
	require.NotEqual(t, k1.CASName, k2.CASName)
	require.NotEqual(t, k1.ObfuscationKey, k2.ObfuscationKey)
}

func TestCASNameIsHexOfArid(t *testing.T) {
	a := mustArid(t)
	k := Derive(a)
	require.Equal(t, "hubert-"+a.Hex(), k.CASName)
}

func TestDHTKeypairIsStable(t *testing.T) {
	a := mustArid(t)
	k := Derive(a)
	pub1, priv1 := k.DHTKeypair()
	pub2, priv2 := k.DHTKeypair()
	require.Equal(t, pub1, pub2)
	require.Equal(t, priv1, priv2)
}
