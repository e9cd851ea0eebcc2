package wallet_manager

import (
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

const (
	addressLength = 32
	// ed25519SingleKeyScheme is appended to the public key when deriving
	// the authentication key.
	ed25519SingleKeyScheme = 0x00
	aip80Prefix            = "ed25519-priv-"
)

type AccountAddress [addressLength]byte

// ParseAddress accepts long and short hex forms, with or without 0x.
func ParseAddress(s string) (AccountAddress, error) {
	var addr AccountAddress
	h := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if h == "" || len(h) > addressLength*2 {
		return addr, errors.Errorf("invalid account address %q", s)
	}
	if len(h) < addressLength*2 {
		h = strings.Repeat("0", addressLength*2-len(h)) + h
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		return addr, errors.Wrapf(err, "invalid account address %q", s)
	}
	copy(addr[:], raw)
	return addr, nil
}

func MustParseAddress(s string) AccountAddress {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// String is the long form, 0x plus 64 lowercase hex digits.
func (a AccountAddress) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// ParsePrivateKey reads an ed25519 key as a 32 byte hex seed (optionally
// 0x or AIP-80 prefixed), a 64 byte hex keypair, or a base58 keypair.
func ParsePrivateKey(s string) (solana.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("private key is empty")
	}
	h := strings.TrimPrefix(s, aip80Prefix)
	h = strings.TrimPrefix(strings.TrimPrefix(h, "0x"), "0X")
	if raw, err := hex.DecodeString(h); err == nil {
		switch len(raw) {
		case ed25519.SeedSize:
			return solana.PrivateKey(ed25519.NewKeyFromSeed(raw)), nil
		case ed25519.PrivateKeySize:
			return solana.PrivateKey(raw), nil
		default:
			return nil, errors.Errorf("hex private key has %d bytes, want %d or %d", len(raw), ed25519.SeedSize, ed25519.PrivateKeySize)
		}
	}
	key, err := solana.PrivateKeyFromBase58(s)
	if err != nil {
		return nil, errors.Wrap(err, "private key is neither hex nor base58")
	}
	return key, nil
}

// DeriveAddress returns the address of an account whose authentication key
// was never rotated: sha3-256(public key || scheme).
func DeriveAddress(key solana.PrivateKey) AccountAddress {
	pub := key.PublicKey()
	h := sha3.New256()
	h.Write(pub.Bytes())
	h.Write([]byte{ed25519SingleKeyScheme})
	var addr AccountAddress
	copy(addr[:], h.Sum(nil))
	return addr
}
