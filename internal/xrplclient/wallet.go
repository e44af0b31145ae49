package xrplclient

import (
	"errors"
	"fmt"

	"github.com/Peersyst/xrpl-go/pkg/crypto"
	"github.com/Peersyst/xrpl-go/xrpl/wallet"
)

var errNotConnected = errors.New("client is not connected")

// SignerFromSeed derives the account address for a seed, validating the seed
// in the process.
func SignerFromSeed(seed string) (Signer, error) {
	w, err := wallet.FromSeed(seed, "")
	if err != nil {
		return Signer{}, fmt.Errorf("deriving wallet from seed: %w", err)
	}
	return Signer{Address: string(w.ClassicAddress), Seed: seed}, nil
}

// GenerateSigner creates fresh ed25519 key material.
func GenerateSigner() (Signer, error) {
	w, err := wallet.New(crypto.ED25519())
	if err != nil {
		return Signer{}, fmt.Errorf("generating wallet: %w", err)
	}
	return Signer{Address: string(w.ClassicAddress), Seed: w.Seed}, nil
}
