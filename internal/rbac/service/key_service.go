package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"gocloud.dev/secrets"

	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"

	// Register KMS provider drivers
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// kmsKeeperOpener implements KeeperOpener using gocloud.dev/secrets.
type kmsKeeperOpener struct{}

// NewKeeperOpener creates a KeeperOpener backed by gocloud.dev/secrets.
func NewKeeperOpener() KeeperOpener {
	return &kmsKeeperOpener{}
}

// OpenKeeper opens a keeper for keyURI.
// Supports: hashivault://, base64key://
func (k *kmsKeeperOpener) OpenKeeper(ctx context.Context, keyURI string) (Keeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

// SigningKeyLoader resolves the audit signing master key from configuration.
type SigningKeyLoader struct {
	opener KeeperOpener
}

// NewSigningKeyLoader creates a SigningKeyLoader using opener for encrypted keys.
func NewSigningKeyLoader(opener KeeperOpener) *SigningKeyLoader {
	return &SigningKeyLoader{opener: opener}
}

// Load decodes the base64 encodedKey. When kmsKeyURI is set the decoded bytes are
// ciphertext and are decrypted with the KMS keeper before use.
func (l *SigningKeyLoader) Load(ctx context.Context, encodedKey, kmsKeyURI string) ([]byte, error) {
	if encodedKey == "" {
		return nil, rbacDomain.ErrSigningKeyMissing
	}

	decoded, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signing key: %w", err)
	}

	if kmsKeyURI == "" {
		return decoded, nil
	}

	keeper, err := l.opener.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = keeper.Close()
	}()

	plaintext, err := keeper.Decrypt(ctx, decoded)
	zero(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt signing key: %w", err)
	}
	if len(plaintext) == 0 {
		return nil, rbacDomain.ErrSigningKeyMissing
	}

	return plaintext, nil
}
