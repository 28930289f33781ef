package pda

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var programID = solana.PublicKey{0x77, 0x01}

func TestDerive_Deterministic(t *testing.T) {
	a, err := Derive(programID)
	require.NoError(t, err)
	b, err := Derive(programID)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, programID, a.Program)
}

func TestDerive_DistinctAddresses(t *testing.T) {
	a, err := Derive(programID)
	require.NoError(t, err)

	seen := map[solana.PublicKey]string{}
	for name, key := range map[string]solana.PublicKey{
		"config": a.Config.Key,
		"native": a.NativeVault.Key,
		"stable": a.StableVault.Key,
	} {
		prev, dup := seen[key]
		assert.False(t, dup, "%s collides with %s", name, prev)
		seen[key] = name
	}
}

func TestDerive_DependsOnProgram(t *testing.T) {
	a, err := Derive(programID)
	require.NoError(t, err)
	b, err := Derive(solana.PublicKey{0x77, 0x02})
	require.NoError(t, err)

	assert.NotEqual(t, a.Config.Key, b.Config.Key)
}

func TestUserPurchase_PerBuyer(t *testing.T) {
	a, err := Derive(programID)
	require.NoError(t, err)

	u1, err := a.UserPurchase(solana.PublicKey{0xb1})
	require.NoError(t, err)
	u2, err := a.UserPurchase(solana.PublicKey{0xb2})
	require.NoError(t, err)
	again, err := a.UserPurchase(solana.PublicKey{0xb1})
	require.NoError(t, err)

	assert.NotEqual(t, u1.Key, u2.Key)
	assert.Equal(t, u1, again)
	assert.NotEqual(t, a.Config.Key, u1.Key)
}

func TestTokenAccount(t *testing.T) {
	owner := solana.PublicKey{0xb1}
	mintA := solana.PublicKey{0xc1}
	mintB := solana.PublicKey{0xc2}

	ataA, err := TokenAccount(owner, mintA)
	require.NoError(t, err)
	ataB, err := TokenAccount(owner, mintB)
	require.NoError(t, err)

	assert.NotEqual(t, ataA, ataB)

	want, _, err := solana.FindAssociatedTokenAddress(owner, mintA)
	require.NoError(t, err)
	assert.Equal(t, want, ataA)
}
