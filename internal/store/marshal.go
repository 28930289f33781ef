package store

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Kind names the record type held by an account.
type Kind string

const (
	KindConfig       Kind = "PresaleConfig"
	KindUserPurchase Kind = "UserPurchase"
	KindNative       Kind = "NativeAccount"
	KindToken        Kind = "TokenAccount"
	KindMint         Kind = "Mint"
)

// NativeAccount holds native-coin lamports.
type NativeAccount struct {
	Lamports uint64
}

// TokenAccount holds a balance of one mint. Only Owner may authorise
// transfers out of it.
type TokenAccount struct {
	Mint   solana.PublicKey `json:"mint"`
	Owner  solana.PublicKey `json:"owner"`
	Amount uint64           `json:"amount"`
}

// Mint tracks the circulating supply of a token.
type Mint struct {
	Supply   uint64 `json:"supply"`
	Decimals uint8  `json:"decimals"`
}

// Discriminator returns the 8-byte record prefix sha256("account:<Kind>")[:8].
func Discriminator(k Kind) [8]byte {
	sum := sha256.Sum256([]byte("account:" + string(k)))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// encodeAccount writes the discriminator of k followed by the Borsh
// encoding of v.
func encodeAccount(k Kind, v any) ([]byte, error) {
	var buf bytes.Buffer
	d := Discriminator(k)
	buf.Write(d[:])
	if err := bin.NewBorshEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode %s: %w", k, err)
	}
	return buf.Bytes(), nil
}

// decodeAccount checks the discriminator of data against k and decodes the
// remainder into v.
func decodeAccount(k Kind, data []byte, v any) error {
	d := Discriminator(k)
	if len(data) < len(d) || !bytes.Equal(data[:len(d)], d[:]) {
		return fmt.Errorf("decode %s: %w", k, ErrWrongKind)
	}
	if err := bin.NewBorshDecoder(data[len(d):]).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", k, err)
	}
	return nil
}
