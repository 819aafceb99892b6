package authstore

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
)

// SaveKey writes the private key to path, hex-encoded, readable only by
// the owner.
func SaveKey(path string, priv *eddsa.PrivateKey) error {
	encoded := hex.EncodeToString(priv.Bytes())
	if err := os.WriteFile(path, []byte(encoded+"\n"), 0o600); err != nil {
		return fmt.Errorf("authstore: save key: %w", err)
	}
	return nil
}

// LoadKey reads a hex-encoded private key written by SaveKey.
func LoadKey(path string) (*eddsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("authstore: load key: %w", err)
	}
	raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("authstore: decode key: %w", err)
	}
	priv := new(eddsa.PrivateKey)
	if _, err := priv.SetBytes(raw); err != nil {
		return nil, fmt.Errorf("authstore: parse key: %w", err)
	}
	return priv, nil
}
