package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func signToken(t *testing.T, mutate func(b *jwt.Builder) *jwt.Builder) string {
	t.Helper()
	builder := jwt.NewBuilder().
		Subject("acc-1").
		Issuer("fitspace").
		Audience([]string{"fitspace-api"}).
		IssuedAt(testNow).
		Expiration(testNow.Add(time.Hour))
	if mutate != nil {
		builder = mutate(builder)
	}
	token, err := builder.Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, []byte(testSecret)))
	require.NoError(t, err)
	return string(signed)
}

func testVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(Config{Secret: testSecret, Issuer: "fitspace", Audience: "fitspace-api"})
	require.NoError(t, err)
	v.WithNow(func() time.Time { return testNow })
	return v
}

func TestParseAccessToken(t *testing.T) {
	v := testVerifier(t)

	identity, err := v.ParseAccessToken(signToken(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Claim("role", "admin")
	}))
	require.NoError(t, err)
	require.Equal(t, "acc-1", identity.AccountID)
	require.Equal(t, "admin", identity.Role)
}

func TestParseAccessTokenNoRole(t *testing.T) {
	v := testVerifier(t)

	identity, err := v.ParseAccessToken(signToken(t, nil))
	require.NoError(t, err)
	require.Equal(t, "acc-1", identity.AccountID)
	require.Empty(t, identity.Role)
}

func TestParseAccessTokenHonorsInjectedClockAndSkew(t *testing.T) {
	v, err := NewVerifier(Config{
		Secret:    testSecret,
		Issuer:    "fitspace",
		Audience:  "fitspace-api",
		ClockSkew: 2 * time.Minute,
	})
	require.NoError(t, err)
	v.WithNow(func() time.Time { return testNow })

	// Expired a minute before the verifier's clock but inside the skew.
	withinSkew := signToken(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Expiration(testNow.Add(-time.Minute))
	})
	identity, err := v.ParseAccessToken(withinSkew)
	require.NoError(t, err)
	require.Equal(t, "acc-1", identity.AccountID)

	// Beyond the skew stays rejected.
	beyondSkew := signToken(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Expiration(testNow.Add(-3 * time.Minute))
	})
	_, err = v.ParseAccessToken(beyondSkew)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	v := testVerifier(t)

	token := signToken(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Expiration(testNow.Add(-time.Minute))
	})
	_, err := v.ParseAccessToken(token)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	v := testVerifier(t)

	token := signToken(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Issuer("someone-else")
	})
	_, err := v.ParseAccessToken(token)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	v, err := NewVerifier(Config{Secret: "a-different-secret", Issuer: "fitspace", Audience: "fitspace-api"})
	require.NoError(t, err)
	v.WithNow(func() time.Time { return testNow })

	_, err = v.ParseAccessToken(signToken(t, nil))
	require.Error(t, err)
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	v := testVerifier(t)

	_, err := v.ParseAccessToken("")
	require.Error(t, err)

	_, err = v.ParseAccessToken("not.a.token")
	require.Error(t, err)
}
