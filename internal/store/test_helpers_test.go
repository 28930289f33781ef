package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
)

var (
	alice    = solana.PublicKey{0xa1}
	bob      = solana.PublicKey{0xb0}
	mintA    = solana.PublicKey{0xc1}
	mintB    = solana.PublicKey{0xc2}
	aliceATA = solana.PublicKey{0xd1}
	bobATA   = solana.PublicKey{0xd2}
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustUpdate runs fn in a transaction and fails the test on error.
func mustUpdate(t *testing.T, s *Store, fn func(*Tx) error) {
	t.Helper()
	if err := s.Update(context.Background(), fn); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
}

func solanaKey(b byte) solana.PublicKey {
	return solana.PublicKey{b}
}
