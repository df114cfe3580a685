// Cipher wraps the same Compressor/Decompressor-shaped contract around
// symmetric encryption, per spec §4.3: "Encryption wraps the same interface
// with a tag {identity, AES-256-CTR, AES-256-GCM}". AES is implemented with
// the standard library (crypto/aes, crypto/cipher); no example repo in the
// retrieval pack wires a third-party implementation of the exact ciphers the
// spec names, so this is the one deliberate stdlib concern in the codec
// layer (see DESIGN.md).
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/govariant/govariant/errs"
	"github.com/govariant/govariant/format"
)

// KeySize is the key length in bytes for AES-256.
const KeySize = 32

// NonceSize is the nonce length in bytes. CTR uses it as an IV; GCM uses it
// as a standard 12-byte nonce.
const NonceSize = 12

// TagSize is the authentication tag length in bytes for AES-256-GCM.
const TagSize = 16

// Sealed is the result of an authenticated or unauthenticated encryption: the
// ciphertext plus, for GCM, the detached authentication tag (the spec stores
// key/nonce/tag in the keychain rather than inline with the ciphertext).
type Sealed struct {
	Ciphertext []byte
	Tag        [TagSize]byte // unused (zero) for CTR and CipherNone
}

// Cipher encrypts and decrypts container payloads for one (key, nonce) pair.
type Cipher interface {
	Seal(plaintext []byte) (Sealed, error)
	Open(s Sealed) ([]byte, error)
}

// NewCipher constructs a Cipher for cipherType using the given key and
// nonce. Key and nonce material is supplied externally (the keychain), per
// spec §4.3: "The core does not generate or persist keys beyond writing them
// to the keychain sink."
func NewCipher(cipherType format.CipherType, key, nonce []byte) (Cipher, error) {
	switch cipherType {
	case format.CipherNone:
		return identityCipher{}, nil
	case format.CipherAES256CTR:
		return newAESCTRCipher(key, nonce)
	case format.CipherAES256GCM:
		return newAESGCMCipher(key, nonce)
	default:
		return nil, fmt.Errorf("%w: unknown cipher type %v", errs.ErrCodecFailure, cipherType)
	}
}

// GenerateKey returns a fresh random AES-256 key suitable for the keychain.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("%w: generating key: %v", errs.ErrCodecFailure, err)
	}

	return key, nil
}

// GenerateNonce returns a fresh random nonce suitable for the keychain.
func GenerateNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: generating nonce: %v", errs.ErrCodecFailure, err)
	}

	return nonce, nil
}

type identityCipher struct{}

func (identityCipher) Seal(plaintext []byte) (Sealed, error) { return Sealed{Ciphertext: plaintext}, nil }
func (identityCipher) Open(s Sealed) ([]byte, error)         { return s.Ciphertext, nil }

type aesCTRCipher struct {
	block cipher.Block
	nonce []byte
}

func newAESCTRCipher(key, nonce []byte) (Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: AES-256-CTR requires a %d-byte key", errs.ErrCodecFailure, KeySize)
	}
	if len(nonce) < NonceSize {
		return nil, fmt.Errorf("%w: AES-256-CTR requires at least a %d-byte nonce", errs.ErrCodecFailure, NonceSize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCodecFailure, err)
	}

	iv := make([]byte, aes.BlockSize)
	copy(iv, nonce)

	return &aesCTRCipher{block: block, nonce: iv}, nil
}

func (c *aesCTRCipher) Seal(plaintext []byte) (Sealed, error) {
	out := make([]byte, len(plaintext))
	cipher.NewCTR(c.block, c.nonce).XORKeyStream(out, plaintext)

	return Sealed{Ciphertext: out}, nil
}

func (c *aesCTRCipher) Open(s Sealed) ([]byte, error) {
	out := make([]byte, len(s.Ciphertext))
	cipher.NewCTR(c.block, c.nonce).XORKeyStream(out, s.Ciphertext)

	return out, nil
}

type aesGCMCipher struct {
	aead  cipher.AEAD
	nonce []byte
}

func newAESGCMCipher(key, nonce []byte) (Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: AES-256-GCM requires a %d-byte key", errs.ErrCodecFailure, KeySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCodecFailure, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCodecFailure, err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: AES-256-GCM requires a %d-byte nonce", errs.ErrCodecFailure, aead.NonceSize())
	}

	return &aesGCMCipher{aead: aead, nonce: nonce}, nil
}

func (c *aesGCMCipher) Seal(plaintext []byte) (Sealed, error) {
	sealed := c.aead.Seal(nil, c.nonce, plaintext, nil)
	ct, tag := sealed[:len(sealed)-TagSize], sealed[len(sealed)-TagSize:]

	var s Sealed
	s.Ciphertext = ct
	copy(s.Tag[:], tag)

	return s, nil
}

func (c *aesGCMCipher) Open(s Sealed) ([]byte, error) {
	combined := make([]byte, 0, len(s.Ciphertext)+TagSize)
	combined = append(combined, s.Ciphertext...)
	combined = append(combined, s.Tag[:]...)

	out, err := c.aead.Open(nil, c.nonce, combined, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrAuthFailure, err)
	}

	return out, nil
}
