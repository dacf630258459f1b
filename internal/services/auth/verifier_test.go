package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const testIssuer = "https://auth.example.com"

type testKeys struct {
	private jwk.Key
	jwksURL string
	server  *httptest.Server
}

// newTestKeys generates a signing key and serves its public half as a
// JWKS endpoint.
func newTestKeys(t *testing.T) *testKeys {
	t.Helper()

	rawKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	private, err := jwk.FromRaw(rawKey)
	if err != nil {
		t.Fatalf("wrap key: %v", err)
	}
	if err := private.Set(jwk.KeyIDKey, "test-key"); err != nil {
		t.Fatalf("set kid: %v", err)
	}
	if err := private.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
		t.Fatalf("set alg: %v", err)
	}

	public, err := private.PublicKey()
	if err != nil {
		t.Fatalf("public key: %v", err)
	}
	set := jwk.NewSet()
	if err := set.AddKey(public); err != nil {
		t.Fatalf("add key: %v", err)
	}
	jwksJSON, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jwksJSON)
	}))
	t.Cleanup(server.Close)

	return &testKeys{private: private, jwksURL: server.URL, server: server}
}

func (k *testKeys) signToken(t *testing.T, mutate func(b *jwt.Builder) *jwt.Builder) string {
	t.Helper()

	builder := jwt.NewBuilder().
		Issuer(testIssuer).
		Subject("3f6f1b4e-8f54-4f9e-9d3d-06f8f3a9e001").
		Claim("email", "creator@example.com").
		Claim("role", "authenticated").
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(1 * time.Hour))
	if mutate != nil {
		builder = mutate(builder)
	}

	token, err := builder.Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, k.private))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return string(signed)
}

func TestVerifier_Verify_ValidToken(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t)
	verifier := NewVerifier(NewJWKSManager(), keys.jwksURL, testIssuer)

	claims, err := verifier.Verify(context.Background(), keys.signToken(t, nil))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if claims.Sub != "3f6f1b4e-8f54-4f9e-9d3d-06f8f3a9e001" {
		t.Errorf("Sub = %q", claims.Sub)
	}
	if claims.Email != "creator@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != "authenticated" {
		t.Errorf("Role = %q", claims.Role)
	}
	if claims.Iss != testIssuer {
		t.Errorf("Iss = %q", claims.Iss)
	}
	if claims.Exp == 0 {
		t.Error("Exp not extracted")
	}
}

func TestVerifier_Verify_ExpiredToken(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t)
	verifier := NewVerifier(NewJWKSManager(), keys.jwksURL, testIssuer)

	expired := keys.signToken(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Expiration(time.Now().Add(-1 * time.Hour))
	})

	if _, err := verifier.Verify(context.Background(), expired); err == nil {
		t.Error("Verify() accepted an expired token")
	}
}

func TestVerifier_Verify_IssuerMismatch(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t)
	verifier := NewVerifier(NewJWKSManager(), keys.jwksURL, testIssuer)

	wrongIssuer := keys.signToken(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Issuer("https://attacker.example.com")
	})

	if _, err := verifier.Verify(context.Background(), wrongIssuer); err == nil {
		t.Error("Verify() accepted a token from the wrong issuer")
	}
}

func TestVerifier_Verify_WrongKey(t *testing.T) {
	t.Parallel()

	// Token signed by one key pair, verified against another's JWKS.
	signer := newTestKeys(t)
	verifierKeys := newTestKeys(t)
	verifier := NewVerifier(NewJWKSManager(), verifierKeys.jwksURL, testIssuer)

	if _, err := verifier.Verify(context.Background(), signer.signToken(t, nil)); err == nil {
		t.Error("Verify() accepted a token signed with an unknown key")
	}
}

func TestVerifier_Verify_Garbage(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t)
	verifier := NewVerifier(NewJWKSManager(), keys.jwksURL, testIssuer)

	if _, err := verifier.Verify(context.Background(), "not-a-token"); err == nil {
		t.Error("Verify() accepted garbage input")
	}
}

func TestJWKSManager_CachesPerURL(t *testing.T) {
	t.Parallel()

	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"keys":[]}`))
	}))
	t.Cleanup(server.Close)

	manager := NewJWKSManager()
	for i := 0; i < 3; i++ {
		if _, err := manager.GetJWKS(context.Background(), server.URL); err != nil {
			t.Fatalf("GetJWKS() error = %v", err)
		}
	}

	if hits != 1 {
		t.Errorf("JWKS endpoint hit %d times, want 1 (cached)", hits)
	}
}
