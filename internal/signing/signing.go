// Package signing implements RSA-SHA256 manifest signing and the
// "generate key pair" dashboard action. It never re-serializes a
// parsed manifest: callers pass the exact bytes to sign, and those
// same bytes are what go out on the wire.
package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// SignBytes signs data with an RSA-SHA256 PKCS1v15 signature and
// returns the base64-encoded signature.
func SignBytes(privateKey *rsa.PrivateKey, data []byte) (string, error) {
	hash := sha256.Sum256(data)
	signature, err := rsa.SignPKCS1v15(rand.Reader, privateKey, crypto.SHA256, hash[:])
	if err != nil {
		return "", fmt.Errorf("signing: sign: %w", err)
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}

// SignatureHeader returns the expo-signature structured-header value
// for the given manifest bytes: `sig="<base64>", keyid="main"`.
func SignatureHeader(privateKey *rsa.PrivateKey, data []byte) (string, error) {
	sig, err := SignBytes(privateKey, data)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`sig="%s", keyid="main"`, sig), nil
}

// ParsePrivateKeyPEM decodes a PEM-encoded RSA private key, trying
// PKCS8 first and falling back to PKCS1.
func ParsePrivateKeyPEM(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("signing: failed to decode PEM block")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("signing: private key is not RSA")
		}
		return rsaKey, nil
	}

	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("signing: failed to parse private key: %w", err)
	}
	return rsaKey, nil
}

// GenerateKeyPair creates a fresh 2048-bit RSA key pair and returns
// both halves PEM-encoded. This is the dashboard's "generate key
// pair" action — it never issues an X.509 certificate chain, only
// the raw key material the manifest signer and the device's
// existing trust of the public half require.
func GenerateKeyPair() (privatePEM, publicPEM string, err error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return "", "", fmt.Errorf("signing: generate key: %w", err)
	}

	privBytes, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", "", fmt.Errorf("signing: marshal private key: %w", err)
	}
	privBlock := &pem.Block{Type: "PRIVATE KEY", Bytes: privBytes}
	privatePEM = string(pem.EncodeToMemory(privBlock))

	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("signing: marshal public key: %w", err)
	}
	pubBlock := &pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes}
	publicPEM = string(pem.EncodeToMemory(pubBlock))

	return privatePEM, publicPEM, nil
}
