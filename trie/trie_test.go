package trie

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkanchor/zkanchor/types"
)

func h(b byte) types.Hash {
	var out types.Hash
	out[0] = b
	return out
}

func TestGetAfterInsert(t *testing.T) {
	tr := New()
	k1, v1 := h(1), h(0x11)
	k2, v2 := h(2), h(0x22)

	tr.InsertOrReplace(k1, v1)
	tr.InsertOrReplace(k2, v2)

	got, err := tr.Get(k1)
	require.NoError(t, err)
	require.Equal(t, v1, got)

	got, err = tr.Get(k2)
	require.NoError(t, err)
	require.Equal(t, v2, got)

	_, err = tr.Get(h(3))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRootDeterministic(t *testing.T) {
	build := func() *Trie {
		tr := New()
		for i := byte(0); i < 20; i++ {
			tr.InsertOrReplace(h(i), h(i+100))
		}
		return tr
	}
	a, b := build(), build()
	require.Equal(t, a.Root(), b.Root())
}

func TestRootChangesOnOverwrite(t *testing.T) {
	tr := New()
	k := h(1)
	tr.InsertOrReplace(k, h(0xaa))
	r1 := tr.Root()
	tr.InsertOrReplace(k, h(0xbb))
	r2 := tr.Root()
	require.NotEqual(t, r1, r2)
}

func TestGetPartialPreservesRootAndMembership(t *testing.T) {
	tr := New()
	keys := make([]types.Hash, 10)
	for i := range keys {
		keys[i] = h(byte(i))
		tr.InsertOrReplace(keys[i], h(byte(i)+50))
	}
	fullRoot := tr.Root()

	witness := []types.Hash{keys[3], keys[7]}
	partial := tr.GetPartial(witness)

	require.Equal(t, fullRoot, partial.Root())
	require.True(t, partial.VerifyPartial(fullRoot))

	for _, k := range witness {
		v, err := partial.Get(k)
		require.NoError(t, err)
		want, _ := tr.Get(k)
		require.Equal(t, want, v)
	}
}

func TestProofVerify(t *testing.T) {
	tr := New()
	k, v := h(5), h(0x55)
	tr.InsertOrReplace(k, v)
	tr.InsertOrReplace(h(9), h(0x99))
	root := tr.Root()

	proof := tr.GetProof(k)
	require.True(t, proof.VerifyProof(k, v, root))
	require.False(t, proof.VerifyProof(k, h(0xff), root))
}
