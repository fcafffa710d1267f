// Package identity provides the cryptographic peer identity used to sign
// and verify signaling messages. Keys are libp2p keys: public keys travel in
// their protobuf encoding and peer ids are derived from them.
package identity

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
)

// Provider is the identity capability the handshake needs.
type Provider interface {
	// PeerID is the local peer id.
	PeerID() string
	// PublicKey returns the protobuf-encoded local public key.
	PublicKey() ([]byte, error)
	Sign(data []byte) ([]byte, error)
	// Verify reports whether signature is valid for data under the
	// protobuf-encoded public key pubKey.
	Verify(pubKey, data, signature []byte) (bool, error)
	PeerIDFromPublicKey(pubKey []byte) (string, error)
}

// Key is a Provider backed by a libp2p private key.
type Key struct {
	priv crypto.PrivKey
	id   peer.ID
}

var _ Provider = (*Key)(nil)

// Generate creates a new Ed25519 identity.
func Generate() (*Key, error) {
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return FromPrivateKey(priv)
}

func FromPrivateKey(priv crypto.PrivKey) (*Key, error) {
	id, err := peer.IDFromPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to derive peer id: %w", err)
	}
	return &Key{priv: priv, id: id}, nil
}

// Load reads a protobuf-encoded private key written by Save.
func Load(path string) (*Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	priv, err := crypto.UnmarshalPrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode key file %s: %w", path, err)
	}
	return FromPrivateKey(priv)
}

// Save writes the private key to path, refusing to overwrite an existing file.
func (k *Key) Save(path string) error {
	data, err := crypto.MarshalPrivateKey(k.priv)
	if err != nil {
		return fmt.Errorf("failed to encode key: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("key file %s already exists", path)
		}
		return fmt.Errorf("failed to create key file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return f.Close()
}

func (k *Key) PeerID() string {
	return k.id.String()
}

func (k *Key) PublicKey() ([]byte, error) {
	return crypto.MarshalPublicKey(k.priv.GetPublic())
}

func (k *Key) Sign(data []byte) ([]byte, error) {
	return k.priv.Sign(data)
}

func (k *Key) Verify(pubKey, data, signature []byte) (bool, error) {
	pub, err := crypto.UnmarshalPublicKey(pubKey)
	if err != nil {
		return false, fmt.Errorf("failed to decode public key: %w", err)
	}
	return pub.Verify(data, signature)
}

func (k *Key) PeerIDFromPublicKey(pubKey []byte) (string, error) {
	pub, err := crypto.UnmarshalPublicKey(pubKey)
	if err != nil {
		return "", fmt.Errorf("failed to decode public key: %w", err)
	}
	id, err := peer.IDFromPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("failed to derive peer id: %w", err)
	}
	return id.String(), nil
}
