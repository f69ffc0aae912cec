package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
)

const rsaKeyBits = 2048

type keyPair struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
}

// loadKeyPair reads base64 encoded PEM keys from JWT_PRIVATE_KEY and
// JWT_PUBLIC_KEY. Outside production a missing pair is replaced by an
// ephemeral one, so tokens do not survive a restart.
func loadKeyPair(src lookuper, production bool) (keyPair, error) {
	privB64, hasPriv := src.Lookup("JWT_PRIVATE_KEY")
	pubB64, hasPub := src.Lookup("JWT_PUBLIC_KEY")

	switch {
	case hasPriv && privB64 != "" && hasPub && pubB64 != "":
	case production:
		return keyPair{}, errors.New("JWT_PRIVATE_KEY and JWT_PUBLIC_KEY are required in production")
	default:
		slog.Info("JWT keys not configured, generating an ephemeral RSA keypair")
		priv, pub, err := GenerateRSAKeyPair()
		return keyPair{private: priv, public: pub}, err
	}

	priv, err := decodePEM("JWT_PRIVATE_KEY", privB64, parsePrivateKey)
	if err != nil {
		return keyPair{}, err
	}
	pub, err := decodePEM("JWT_PUBLIC_KEY", pubB64, parsePublicKey)
	if err != nil {
		return keyPair{}, err
	}
	if !priv.PublicKey.Equal(pub) {
		return keyPair{}, errors.New("JWT_PUBLIC_KEY does not match JWT_PRIVATE_KEY")
	}
	return keyPair{private: priv, public: pub}, nil
}

func GenerateRSAKeyPair() (*rsa.PrivateKey, *rsa.PublicKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate RSA key pair: %w", err)
	}
	return key, &key.PublicKey, nil
}

func decodePEM[K any](name, b64 string, parse func([]byte) (K, error)) (K, error) {
	var zero K
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return zero, fmt.Errorf("%s is not valid base64: %w", name, err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return zero, fmt.Errorf("%s holds no PEM block", name)
	}
	key, err := parse(block.Bytes)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", name, err)
	}
	return key, nil
}

// parsePrivateKey accepts PKCS#1 and PKCS#8 encodings.
func parsePrivateKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("not an RSA private key")
	}
	return rsaKey, nil
}

func parsePublicKey(der []byte) (*rsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return rsaKey, nil
}
