package repositories

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zainiii163/tearence-backend-sub004/internal/models"
	"github.com/zainiii163/tearence-backend-sub004/internal/utils"
)

func setupInvoiceRepo(t *testing.T, dbName string) *invoiceRepository {
	database := utils.SetupTestDB(t, dbName, InvoicesCollection)
	repo := NewInvoiceRepository(database).(*invoiceRepository)
	require.NoError(t, repo.EnsureIndexes(context.Background()))
	return repo
}

func TestInvoiceRepository_CreateAndIssue(t *testing.T) {
	repo := setupInvoiceRepo(t, "testdb_invoice_repo_issue")
	ctx := context.Background()
	customerID := primitive.NewObjectID()
	urID := primitive.NewObjectID()

	invoice := &models.Invoice{CustomerID: customerID, ListingID: primitive.NewObjectID(), ListingTitle: "Bike", OriginalPrice: 50}
	require.NoError(t, repo.Create(ctx, invoice))
	assert.Regexp(t, regexp.MustCompile(`^INV-\d{8}-[0-9A-Z]{6}$`), invoice.InvoiceNumber)
	assert.Equal(t, models.InvoiceStatusPending, invoice.Status)

	issued, err := repo.Issue(ctx, invoice.ID, &models.DiscountResult{
		OriginalPrice: 50, DiscountAmount: 10, FinalPrice: 40, DiscountApplied: true,
		DiscountSource: models.DiscountSourceWelcomeReferral, UserReferralID: &urID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusIssued, issued.Status)
	assert.Equal(t, 40.0, issued.FinalPrice)
	assert.Equal(t, models.DiscountSourceWelcomeReferral, issued.DiscountSource)
	require.NotNil(t, issued.UserReferralID)
	assert.Equal(t, urID, *issued.UserReferralID)
	assert.NotNil(t, issued.IssuedAt)

	// Only pending invoices can be issued or failed.
	_, err = repo.Issue(ctx, invoice.ID, &models.DiscountResult{})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.MarkFailed(ctx, invoice.ID, "late"), ErrNotFound)

	invoices, err := repo.FindByCustomer(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, invoice.InvoiceNumber, invoices[0].InvoiceNumber)
}

func TestInvoiceRepository_MarkFailed(t *testing.T) {
	repo := setupInvoiceRepo(t, "testdb_invoice_repo_failed")
	ctx := context.Background()

	invoice := &models.Invoice{CustomerID: primitive.NewObjectID(), ListingID: primitive.NewObjectID()}
	require.NoError(t, repo.Create(ctx, invoice))
	require.NoError(t, repo.MarkFailed(ctx, invoice.ID, "datastore unavailable"))

	invoices, err := repo.FindByCustomer(ctx, invoice.CustomerID)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, models.InvoiceStatusFailed, invoices[0].Status)
	assert.Equal(t, "datastore unavailable", invoices[0].FailureReason)
}
