package testutil

import (
	"crypto/ed25519"
	"crypto/sha256"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// KeyFromAlias derives a deterministic keypair from a human alias such as
// "alice" or "authority". The same alias always yields the same key.
func KeyFromAlias(alias string) solana.PrivateKey {
	seed := sha256.Sum256([]byte("velirion/testkey/" + alias))
	return solana.PrivateKey(ed25519.NewKeyFromSeed(seed[:]))
}

// Keyring maps scenario aliases to deterministic keys and back.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Keyring struct {
	mu      sync.Mutex
	keys    map[string]solana.PrivateKey
	aliases map[solana.PublicKey]string
}

// NewKeyring creates an empty keyring.
func NewKeyring() *Keyring {
	return &Keyring{
		keys:    make(map[string]solana.PrivateKey),
		aliases: make(map[solana.PublicKey]string),
	}
}

// Key returns the keypair for alias, deriving it on first use.
func (k *Keyring) Key(alias string) solana.PrivateKey {
	k.mu.Lock()
	defer k.mu.Unlock()
	if key, ok := k.keys[alias]; ok {
		return key
	}
	key := KeyFromAlias(alias)
	k.keys[alias] = key
	k.aliases[key.PublicKey()] = alias
	return key
}

// Public returns the public key for alias.
func (k *Keyring) Public(alias string) solana.PublicKey {
	return k.Key(alias).PublicKey()
}

// Name registers a non-key address (a vault or mint) under alias so traces
// can print it by name.
func (k *Keyring) Name(alias string, addr solana.PublicKey) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.aliases[addr] = alias
}

// Alias returns the alias registered for addr, or its base58 form.
func (k *Keyring) Alias(addr solana.PublicKey) string {
	k.mu.Lock()
	defer k.mu.Unlock()
	if a, ok := k.aliases[addr]; ok {
		return a
	}
	return addr.String()
}

// Aliases returns every registered alias in sorted order.
func (k *Keyring) Aliases() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]string, 0, len(k.aliases))
	for _, a := range k.aliases {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
