package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	token, err := Generate("secreto", "u1", "H1", "hospital", "banco-sangre", 5)
	require.NoError(t, err)

	claims, err := Parse("secreto", token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "H1", claims.HospitalID)
	assert.Equal(t, "hospital", claims.Role)
	assert.Equal(t, "banco-sangre", claims.Issuer)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	token, err := Generate("secreto", "u1", "", "admin", "banco-sangre", 5)
	require.NoError(t, err)
	_, err = Parse("otro", token)
	assert.Error(t, err)
}

func TestParse_Expirado(t *testing.T) {
	token, err := Generate("secreto", "u1", "", "admin", "banco-sangre", -1)
	require.NoError(t, err)
	_, err = Parse("secreto", token)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := Generate("", "u1", "", "admin", "x", 5)
	assert.Error(t, err)
}
