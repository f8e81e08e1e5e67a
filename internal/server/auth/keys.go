package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/gatorauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultKeyBits is the RSA modulus size used by keygen.
const DefaultKeyBits = 2048

// KeyPair is the RSA keypair of one token class. Public may be nil, in which
// case it is derived from Private.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

func (kp KeyPair) withPublic() KeyPair {
	if kp.Public == nil && kp.Private != nil {
		kp.Public = &kp.Private.PublicKey
	}
	return kp
}

// LoadKeyPair parses PEM key material. Each argument is either an inline PEM
// block or a path to a PEM file. An empty publicKey is derived from the
// private key; a non-empty one must match it.
func LoadKeyPair(privateKey, publicKey string) (KeyPair, error) {
	if privateKey == "" {
		return KeyPair{}, common.ErrMissingKey
	}

	raw, err := readPEM(privateKey)
	if err != nil {
		return KeyPair{}, fmt.Errorf("read private key: %w", err)
	}
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(raw)
	if err != nil {
		return KeyPair{}, fmt.Errorf("parse private key: %w", err)
	}

	kp := KeyPair{Private: priv, Public: &priv.PublicKey}
	if publicKey == "" {
		return kp, nil
	}

	raw, err = readPEM(publicKey)
	if err != nil {
		return KeyPair{}, fmt.Errorf("read public key: %w", err)
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(raw)
	if err != nil {
		return KeyPair{}, fmt.Errorf("parse public key: %w", err)
	}
	if !pub.Equal(&priv.PublicKey) {
		return KeyPair{}, errors.New("public key does not match private key")
	}
	kp.Public = pub
	return kp, nil
}

func readPEM(s string) ([]byte, error) {
	if strings.Contains(s, "-----BEGIN") {
		return []byte(s), nil
	}
	return os.ReadFile(s)
}

// GenerateKeyPair creates a fresh RSA keypair.
func GenerateKeyPair(bits int) (KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate rsa key: %w", err)
	}
	return KeyPair{Private: priv, Public: &priv.PublicKey}, nil
}

// EncodeKeyPair renders kp as PKCS#8 private and PKIX public PEM blocks.
func EncodeKeyPair(kp KeyPair) (privPEM, pubPEM []byte, err error) {
	kp = kp.withPublic()
	if kp.Private == nil {
		return nil, nil, common.ErrMissingKey
	}

	der, err := x509.MarshalPKCS8PrivateKey(kp.Private)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal private key: %w", err)
	}
	privPEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	der, err = x509.MarshalPKIXPublicKey(kp.Public)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal public key: %w", err)
	}
	pubPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	return privPEM, pubPEM, nil
}
