package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zainiii163/tearence-backend-sub004/internal/models"
	"github.com/zainiii163/tearence-backend-sub004/internal/utils"
)

func TestCustomerRepository_UpsertCreatesThenUpdates(t *testing.T) {
	database := utils.SetupTestDB(t, "testdb_customer_repo_upsert", CustomersCollection)
	repo := NewCustomerRepository(database)
	ctx := context.Background()
	id := primitive.NewObjectID()

	_, err := repo.FindByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := repo.Upsert(ctx, &models.Customer{Base: models.Base{ID: id}, Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, id, created.ID)
	assert.Equal(t, "Ada", created.Name)
	assert.False(t, created.CreatedAt.IsZero())

	updated, err := repo.Upsert(ctx, &models.Customer{Base: models.Base{ID: id}, Name: "Ada L", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada L", updated.Name)
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())

	found, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada L", found.Name)
}
