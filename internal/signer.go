package internal

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"strings"
)

// Signature algorithm designators used on the wire.
const (
	SignTypeRSA  = "RSA"
	SignTypeRSA2 = "RSA2"
)

// Signer produces and verifies asymmetric signatures over the canonical
// string. Signing and verification must operate over byte-identical
// input; any drift between the two call sites is a security defect.
type Signer struct {
	signType string
}

func NewSigner(signType string) *Signer {
	if signType == "" {
		signType = SignTypeRSA2
	}
	return &Signer{signType: signType}
}

// Sign returns the base64 signature of content under the merchant
// private key. The key may be a PKCS#1 or PKCS#8 PEM block, or a bare
// base64 DER body without headers.
func (s *Signer) Sign(content string, privateKey string) (string, error) {
	key, err := parsePrivateKey(privateKey)
	if err != nil {
		return "", fmt.Errorf("parse private key: %w", err)
	}
	hash, digest := s.digest(content)
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, hash, digest)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}

// Verify reports whether signature matches content under the provider
// public key. It returns false on any mismatch or malformed input,
// never an error; callers decide how to escalate.
func (s *Signer) Verify(content, signature string, publicKey string) bool {
	key, err := parsePublicKey(publicKey)
	if err != nil {
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	hash, digest := s.digest(content)
	return rsa.VerifyPKCS1v15(key, hash, digest, raw) == nil
}

func (s *Signer) digest(content string) (crypto.Hash, []byte) {
	if s.signType == SignTypeRSA {
		sum := sha1.Sum([]byte(content))
		return crypto.SHA1, sum[:]
	}
	sum := sha256.Sum256([]byte(content))
	return crypto.SHA256, sum[:]
}

func parsePrivateKey(text string) (*rsa.PrivateKey, error) {
	der, err := decodeKey(text)
	if err != nil {
		return nil, err
	}
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA private key")
	}
	return key, nil
}

func parsePublicKey(text string) (*rsa.PublicKey, error) {
	der, err := decodeKey(text)
	if err != nil {
		return nil, err
	}
	if key, err := x509.ParsePKCS1PublicKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key")
	}
	return key, nil
}

// decodeKey accepts a PEM block or a bare base64 body, as provider
// consoles hand out keys both ways.
func decodeKey(text string) ([]byte, error) {
	if block, _ := pem.Decode([]byte(text)); block != nil {
		return block.Bytes, nil
	}
	compact := strings.NewReplacer("\n", "", "\r", "", " ", "").Replace(text)
	der, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("key is neither PEM nor base64: %w", err)
	}
	return der, nil
}
