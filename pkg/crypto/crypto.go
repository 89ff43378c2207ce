// Package crypto is a thin adapter over an external PGP implementation.
// dotconf consumes key material and delegates all cipher work to the
// openpgp library; it never manufactures cryptographic randomness itself.
package crypto

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"

	"dotconf/pkg/errors"
	"dotconf/pkg/logging"
	"dotconf/pkg/types"
)

const messageType = "PGP MESSAGE"

// PassphrasePrompt asks the user for the passphrase protecting a private
// key. It is injected so tests and non-interactive callers can supply one.
type PassphrasePrompt func() ([]byte, error)

// PGP holds loaded key material for one command's encrypt/decrypt calls.
type PGP struct {
	secret    *openpgp.Entity
	recipient *openpgp.Entity
}

// Load reads the secret key (and optional recipient public key) named by
// keys. When no recipient is configured, the public half of the secret key
// is the encryption target. An encrypted private key is unlocked through
// prompt.
func Load(filesystem types.FS, keys types.KeyConfig, prompt PassphrasePrompt) (*PGP, error) {
	logger := logging.GetLogger("crypto")

	secret, err := readArmoredEntity(filesystem, keys.SecretKeyPath)
	if err != nil {
		return nil, err
	}
	if secret.PrivateKey == nil {
		return nil, errors.Newf(errors.ErrKeyLoad, "%q does not contain a private key", keys.SecretKeyPath)
	}

	if secret.PrivateKey.Encrypted {
		if prompt == nil {
			return nil, errors.Newf(errors.ErrKeyLoad, "private key %q is passphrase-protected", keys.SecretKeyPath)
		}
		pass, err := prompt()
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrKeyLoad, "cannot read passphrase for %q", keys.SecretKeyPath)
		}
		if err := unlockEntity(secret, pass); err != nil {
			return nil, errors.Wrapf(err, errors.ErrKeyLoad, "wrong passphrase for %q", keys.SecretKeyPath)
		}
	}

	recipient := secret
	if keys.RecipientKeyPath != "" {
		recipient, err = readArmoredEntity(filesystem, keys.RecipientKeyPath)
		if err != nil {
			return nil, err
		}
	}

	logger.Debug().
		Str("secretKey", keys.SecretKeyPath).
		Bool("ownRecipient", keys.RecipientKeyPath == "").
		Msg("key material loaded")
	return &PGP{secret: secret, recipient: recipient}, nil
}

func readArmoredEntity(filesystem types.FS, path string) (*openpgp.Entity, error) {
	data, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrKeyLoad, "cannot read key %q", path)
	}
	ring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrKeyLoad, "cannot parse key %q", path)
	}
	if len(ring) == 0 {
		return nil, errors.Newf(errors.ErrKeyLoad, "no keys found in %q", path)
	}
	return ring[0], nil
}

func unlockEntity(e *openpgp.Entity, pass []byte) error {
	if err := e.PrivateKey.Decrypt(pass); err != nil {
		return err
	}
	for _, sub := range e.Subkeys {
		if sub.PrivateKey != nil && sub.PrivateKey.Encrypted {
			if err := sub.PrivateKey.Decrypt(pass); err != nil {
				return err
			}
		}
	}
	return nil
}

// Encrypt encrypts plaintext to the recipient key and returns the result
// as an ASCII-armored PGP message.
func (p *PGP) Encrypt(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	armorer, err := armor.Encode(&buf, messageType, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot start armor stream")
	}
	w, err := openpgp.Encrypt(armorer, []*openpgp.Entity{p.recipient}, nil, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot start encryption")
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "encryption failed")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "encryption failed")
	}
	if err := armorer.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot finish armor stream")
	}
	return buf.Bytes(), nil
}

// Decrypt decrypts an ASCII-armored PGP message with the secret key,
// failing with DECRYPTION_FAILED on key mismatch or corrupt ciphertext.
func (p *PGP) Decrypt(armored []byte) ([]byte, error) {
	block, err := armor.Decode(bytes.NewReader(armored))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDecryptionFailed, "ciphertext is not an armored PGP message")
	}
	md, err := openpgp.ReadMessage(block.Body, openpgp.EntityList{p.secret}, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDecryptionFailed, "cannot decrypt message")
	}
	plaintext, err := io.ReadAll(md.UnverifiedBody)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDecryptionFailed, "cannot decrypt message body")
	}
	return plaintext, nil
}

// GenerateKey creates a fresh RSA key pair and writes the armored private
// key to path. Generation itself is delegated entirely to the openpgp
// library. The file is created exclusively: an existing key is never
// overwritten.
func GenerateKey(filesystem types.FS, name, email, path string) error {
	config := &packet.Config{RSABits: 2048}
	entity, err := openpgp.NewEntity(name, "", email, config)
	if err != nil {
		return errors.Wrap(err, errors.ErrKeyGenerate, "key generation failed")
	}

	var buf bytes.Buffer
	armorer, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrKeyGenerate, "cannot start armor stream")
	}
	if err := entity.SerializePrivate(armorer, config); err != nil {
		return errors.Wrap(err, errors.ErrKeyGenerate, "cannot serialize private key")
	}
	if err := armorer.Close(); err != nil {
		return errors.Wrap(err, errors.ErrKeyGenerate, "cannot finish armor stream")
	}

	if err := filesystem.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrapf(err, errors.ErrIoFailure, "cannot create key directory for %q", path)
	}
	if err := filesystem.CreateExclusive(path, buf.Bytes()); err != nil {
		if os.IsExist(err) {
			return errors.Newf(errors.ErrKeyGenerate, "refusing to overwrite existing key %q", path)
		}
		return errors.Wrapf(err, errors.ErrIoFailure, "cannot write key %q", path)
	}

	logger := logging.GetLogger("crypto")
	logger.Info().Str("path", path).Msg("generated new PGP key")
	return nil
}
