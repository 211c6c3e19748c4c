package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	id := primitive.NewObjectID()

	token, err := GenerateJWT(id, true, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, id.Hex(), claims.CustomerID)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, id.Hex(), claims.Subject)
}

func TestValidateJWT_Rejects(t *testing.T) {
	id := primitive.NewObjectID()

	token, err := GenerateJWT(id, false, "secret", time.Hour)
	require.NoError(t, err)
	_, err = ValidateJWT(token, "other-secret")
	assert.Error(t, err)

	expired, err := GenerateJWT(id, false, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateJWT(expired, "secret")
	assert.Error(t, err)

	_, err = ValidateJWT("not-a-token", "secret")
	assert.Error(t, err)
}
