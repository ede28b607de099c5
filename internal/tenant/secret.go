// Copyright 2026 The myAdmin Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tenant

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

const sealedPrefix = "enc:v1:"

var (
	ErrSecretsDisabled = errors.New("secret storage is not configured")
	ErrSecretCorrupt   = errors.New("secret value cannot be decrypted")
)

// SecretBox encrypts secret tenant config values at rest with
// XChaCha20-Poly1305. The tenant and key are bound as associated data so a
// sealed value cannot be moved to another tenant or setting.
type SecretBox struct {
	key []byte
}

// NewSecretBox creates a box from a 32-byte key.
func NewSecretBox(key []byte) (*SecretBox, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &SecretBox{key: k}, nil
}

// NewSecretBoxFromBase64 decodes a standard base64 key.
func NewSecretBoxFromBase64(encoded string) (*SecretBox, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret key: %w", err)
	}
	return NewSecretBox(key)
}

func associatedData(tenant, key string) []byte {
	return []byte(tenant + "\x00" + key)
}

// Seal encrypts value for the given tenant setting.
func (b *SecretBox) Seal(tenant, key, value string) (string, error) {
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(value)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(value), associatedData(tenant, key))
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (b *SecretBox) Open(tenant, key, sealed string) (string, error) {
	if !strings.HasPrefix(sealed, sealedPrefix) {
		return "", ErrSecretCorrupt
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
	if err != nil {
		return "", ErrSecretCorrupt
	}

	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrSecretCorrupt
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, associatedData(tenant, key))
	if err != nil {
		return "", ErrSecretCorrupt
	}
	return string(plain), nil
}
