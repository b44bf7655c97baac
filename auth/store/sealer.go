// SPDX-License-Identifier: ice License 1.0

package store

import (
	"encoding/hex"

	"github.com/ericlagergren/siv"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

const sealerKeySize = 32

// newSealer expects a hex encoded nonce followed by an AES-256 key.
func newSealer(secret string) (*sealer, error) {
	decodedKey, err := hex.DecodeString(secret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode the store secret")
	}
	if len(decodedKey) != sealerKeySize+siv.NonceSize {
		return nil, errors.Errorf("the store secret must be %v bytes, got %v", sealerKeySize+siv.NonceSize, len(decodedKey))
	}
	aead, err := siv.NewGCM(decodedKey[siv.NonceSize:])
	if err != nil {
		return nil, errors.Wrap(err, "failed to build aes gcm siv mode")
	}

	return &sealer{aead: aead, nonce: decodedKey[:siv.NonceSize]}, nil
}

func (s *sealer) seal(plaintext string) string {
	if s == nil {
		return plaintext
	}

	return hex.EncodeToString(s.aead.Seal(nil, s.nonce, []byte(plaintext), nil))
}

func (s *sealer) open(sealed string) (string, error) {
	if s == nil {
		return sealed, nil
	}
	ciphertext, err := hex.DecodeString(sealed)
	if err != nil {
		return "", multierror.Append(ErrUnsealingFailed, errors.Wrap(err, "failed to decode value"))
	}
	plaintext, err := s.aead.Open(nil, s.nonce, ciphertext, nil)
	if err != nil {
		return "", multierror.Append(ErrUnsealingFailed, errors.Wrap(err, "failed to open ciphertext"))
	}

	return string(plaintext), nil
}
