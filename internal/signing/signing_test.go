package signing

import (
	"strings"
	"testing"
)

func TestSignAndParseRoundTrip(t *testing.T) {
	privatePEM, publicPEM, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key pair: %v", err)
	}
	if !strings.Contains(privatePEM, "PRIVATE KEY") {
		t.Fatal("expected a PEM private key block")
	}
	if !strings.Contains(publicPEM, "PUBLIC KEY") {
		t.Fatal("expected a PEM public key block")
	}

	key, err := ParsePrivateKeyPEM([]byte(privatePEM))
	if err != nil {
		t.Fatalf("parse private key: %v", err)
	}

	header, err := SignatureHeader(key, []byte(`{"id":"abc"}`))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !strings.HasPrefix(header, `sig="`) || !strings.Contains(header, `keyid="main"`) {
		t.Fatalf("unexpected signature header shape: %q", header)
	}
}

