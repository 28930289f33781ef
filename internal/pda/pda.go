// Package pda derives the deterministic addresses of a presale program
// instance.
//
// Every address is a program-derived address of the program ID, so no
// private key exists for it. Only the program can authorise transfers out
// of accounts owned by these addresses.
package pda

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Seeds used for address derivation.
var (
	SeedConfig       = []byte("presale_config")
	SeedUserPurchase = []byte("user_purchase")
	SeedNativeVault  = []byte("sol_vault")
	SeedStableVault  = []byte("usdc_vault")
)

// Address is a derived address together with its bump seed.
type Address struct {
	Key  solana.PublicKey `json:"address"`
	Bump uint8            `json:"bump"`
}

// Addresses are the fixed derived addresses of one program instance.
type Addresses struct {
	Program     solana.PublicKey `json:"program"`
	Config      Address          `json:"config"`
	NativeVault Address          `json:"native_vault"`
	StableVault Address          `json:"stable_vault"`
}

// Derive computes the config and vault addresses for programID.
func Derive(programID solana.PublicKey) (*Addresses, error) {
	cfg, err := find(programID, SeedConfig)
	if err != nil {
		return nil, fmt.Errorf("derive config: %w", err)
	}
	native, err := find(programID, SeedNativeVault)
	if err != nil {
		return nil, fmt.Errorf("derive native vault: %w", err)
	}
	stable, err := find(programID, SeedStableVault)
	if err != nil {
		return nil, fmt.Errorf("derive stable vault: %w", err)
	}
	return &Addresses{
		Program:     programID,
		Config:      cfg,
		NativeVault: native,
		StableVault: stable,
	}, nil
}

// UserPurchase derives the purchase record address of buyer.
func (a *Addresses) UserPurchase(buyer solana.PublicKey) (Address, error) {
	addr, err := find(a.Program, SeedUserPurchase, buyer.Bytes())
	if err != nil {
		return Address{}, fmt.Errorf("derive user purchase %s: %w", buyer, err)
	}
	return addr, nil
}

// TokenAccount returns the associated token account of owner for mint.
func TokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive token account %s/%s: %w", owner, mint, err)
	}
	return ata, nil
}

func find(programID solana.PublicKey, seeds ...[]byte) (Address, error) {
	key, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return Address{}, err
	}
	return Address{Key: key, Bump: bump}, nil
}
