package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestPrincipalCan(t *testing.T) {
	customer := Principal{UserID: 1, Role: RoleCustomer}
	organizer := Principal{UserID: 2, Role: RoleOrganizer}

	assert.True(t, customer.Can(CapPurchaseTicket))
	assert.True(t, customer.Can(CapViewOwnTickets))
	assert.False(t, customer.Can(CapManageEvents))

	assert.True(t, organizer.Can(CapManageEvents))
	assert.False(t, organizer.Can(CapPurchaseTicket))

	assert.False(t, Principal{Role: RoleCustomer}.Can(CapPurchaseTicket), "anonymous caller")
	assert.False(t, Principal{UserID: 3}.Can(CapPurchaseTicket), "no role")
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleCustomer, ParseRole("CUSTOMER"))
	assert.Equal(t, RoleOrganizer, ParseRole(" organizer "))
	assert.Equal(t, Role(""), ParseRole("admin"))
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, RoleCustomer, time.Minute)
	require.NoError(t, err)
	assert.True(t, tok.Exp.After(time.Now()))

	p, err := ParseAccessToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: 42, Role: RoleCustomer}, p)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, RoleCustomer, time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken("other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewAccessToken(testSecret, 42, RoleCustomer, -time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken(testSecret, expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAccessToken(testSecret, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "customer"})
	raw, err := noSub.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ParseAccessToken(testSecret, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessToken_ProviderClaims(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":          float64(7),
		"role":         "authenticated",
		"app_metadata": map[string]interface{}{"role": "organizer"},
		"exp":          time.Now().Add(time.Minute).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	p, err := ParseAccessToken(testSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), p.UserID)
	assert.Equal(t, RoleOrganizer, p.Role)
}

func signed(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

func TestParseAccessToken_RequiresExpiry(t *testing.T) {
	raw := signed(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42", "role": "customer"})
	_, err := ParseAccessToken(testSecret, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessToken_OnlyHS256(t *testing.T) {
	exp := time.Now().Add(time.Minute).Unix()
	raw := signed(t, jwt.SigningMethodHS384, jwt.MapClaims{"sub": "42", "role": "customer", "exp": exp})
	_, err := ParseAccessToken(testSecret, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessToken_NonIntegerSubject(t *testing.T) {
	exp := time.Now().Add(time.Minute).Unix()
	for _, sub := range []float64{1.5, 1e30, -3, 0} {
		raw := signed(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub, "role": "customer", "exp": exp})
		_, err := ParseAccessToken(testSecret, raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "sub=%v", sub)
	}
}
