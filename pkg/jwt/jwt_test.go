package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/piano-stock-api/pkg/jwt"
)

const secret = "test-secret-key-for-unit-tests"

var tech = jwt.Identity{UserID: "tech-1", CompanyID: "company-1", Role: "technician"}

func TestIssuer_IdaYVueltaConRol(t *testing.T) {
	issuer, err := jwt.NewIssuer(secret, "piano-stock", time.Hour)
	require.NoError(t, err)
	verifier, err := jwt.NewVerifier(secret, "piano-stock")
	require.NoError(t, err)

	tok, exp, err := issuer.Issue(tech)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	id, err := verifier.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, tech, id)
}

func TestVerifier_RechazaTokens(t *testing.T) {
	verifier, err := jwt.NewVerifier(secret, "piano-stock")
	require.NoError(t, err)

	expired, err := jwt.NewIssuer(secret, "piano-stock", -time.Minute)
	require.NoError(t, err)
	otherSecret, err := jwt.NewIssuer("otro-secret-completamente-distinto", "piano-stock", time.Hour)
	require.NoError(t, err)
	otherIssuer, err := jwt.NewIssuer(secret, "otro-emisor", time.Hour)
	require.NoError(t, err)

	for name, issuer := range map[string]*jwt.Issuer{
		"vencido":     expired,
		"otro secret": otherSecret,
		"otro emisor": otherIssuer,
	} {
		t.Run(name, func(t *testing.T) {
			tok, _, err := issuer.Issue(tech)
			require.NoError(t, err)
			_, err = verifier.Verify(tok)
			assert.ErrorIs(t, err, jwt.ErrInvalidToken)
		})
	}

	_, err = verifier.Verify("token.invalido.aqui")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestVerifier_SinEmisorConfiguradoAceptaCualquiera(t *testing.T) {
	verifier, err := jwt.NewVerifier(secret, "")
	require.NoError(t, err)
	issuer, err := jwt.NewIssuer(secret, "identidad-externa", time.Hour)
	require.NoError(t, err)

	tok, _, err := issuer.Issue(tech)
	require.NoError(t, err)
	_, err = verifier.Verify(tok)
	assert.NoError(t, err)
}

func TestNew_SecretVacio(t *testing.T) {
	_, err := jwt.NewIssuer("", "piano-stock", time.Hour)
	assert.ErrorIs(t, err, jwt.ErrEmptySecret)
	_, err = jwt.NewVerifier("", "")
	assert.ErrorIs(t, err, jwt.ErrEmptySecret)

	issuer, err := jwt.NewIssuer(secret, "piano-stock", time.Hour)
	require.NoError(t, err)
	_, _, err = issuer.Issue(jwt.Identity{Role: "admin"})
	assert.Error(t, err)
}
