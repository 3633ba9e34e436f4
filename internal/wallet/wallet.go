// Package wallet generates and imports EVM keypairs for agent deployment.
// Generated material lives only in memory until it is embedded into a create
// request; nothing here touches disk.
package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"

	"github.com/zapdeck/zapdeck/internal/domain"
)

// ErrInvalidMnemonic is returned when an imported phrase fails the BIP-39
// checksum before any key derivation is attempted.
var ErrInvalidMnemonic = errors.New("invalid mnemonic phrase")

// ErrInvalidPrivateKey is returned when an imported key is not 32 bytes of hex.
var ErrInvalidPrivateKey = errors.New("invalid private key")

// derivationPath is the standard Ethereum path m/44'/60'/0'/0/0.
var derivationPath = []uint32{
	hdkeychain.HardenedKeyStart + 44,
	hdkeychain.HardenedKeyStart + 60,
	hdkeychain.HardenedKeyStart,
	0,
	0,
}

// Generate creates a fresh keypair with a 12-word mnemonic.
func Generate() (*domain.WalletInfo, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return nil, fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return fromMnemonic(mnemonic)
}

// Import derives a wallet from either a private key or a mnemonic phrase.
// Presence of a space selects the mnemonic path; both paths validate the
// input before attempting derivation.
func Import(secret string) (*domain.WalletInfo, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrInvalidPrivateKey
	}

	if strings.Contains(secret, " ") {
		if !bip39.IsMnemonicValid(secret) {
			return nil, ErrInvalidMnemonic
		}
		return fromMnemonic(secret)
	}

	return fromPrivateKey(secret)
}

// fromMnemonic derives the first account at m/44'/60'/0'/0/0.
func fromMnemonic(mnemonic string) (*domain.WalletInfo, error) {
	seed := bip39.NewSeed(mnemonic, "")

	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to derive master key: %w", err)
	}
	for _, step := range derivationPath {
		key, err = key.Derive(step)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child key: %w", err)
		}
	}

	ecPriv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to extract private key: %w", err)
	}
	priv := ecPriv.ToECDSA()

	return &domain.WalletInfo{
		Address:    crypto.PubkeyToAddress(priv.PublicKey).Hex(),
		PrivateKey: "0x" + hex.EncodeToString(crypto.FromECDSA(priv)),
		Mnemonic:   mnemonic,
	}, nil
}

func fromPrivateKey(keyHex string) (*domain.WalletInfo, error) {
	trimmed := strings.TrimPrefix(keyHex, "0x")
	if len(trimmed) != 64 {
		return nil, ErrInvalidPrivateKey
	}
	if _, err := hex.DecodeString(trimmed); err != nil {
		return nil, ErrInvalidPrivateKey
	}

	priv, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}

	return &domain.WalletInfo{
		Address:    crypto.PubkeyToAddress(priv.PublicKey).Hex(),
		PrivateKey: "0x" + hex.EncodeToString(crypto.FromECDSA(priv)),
	}, nil
}
