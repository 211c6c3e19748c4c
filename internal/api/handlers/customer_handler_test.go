package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zainiii163/tearence-backend-sub004/internal/api/handlers"
	"github.com/zainiii163/tearence-backend-sub004/internal/models"
	"github.com/zainiii163/tearence-backend-sub004/internal/repositories"
)

func setupCustomerRouter(customerID primitive.ObjectID, svc *MockCustomerService) http.Handler {
	h := handlers.NewCustomerHandler(svc)
	r := newTestRouter(customerID)
	r.GET("/v1/customers/me", h.GetMe)
	r.PUT("/v1/customers/me", h.UpdateMe)
	return r
}

func TestCustomerHandler_UpdateMeCreatesProfile(t *testing.T) {
	customerID := primitive.NewObjectID()
	svc := new(MockCustomerService)
	r := setupCustomerRouter(customerID, svc)

	saved := &models.Customer{Base: models.Base{ID: customerID}, Name: "Ada", Email: "ada@example.com"}
	svc.On("UpdateProfile", mock.Anything, customerID, "Ada", "ada@example.com").Return(saved, nil).Once()

	w := performJSON(t, r, http.MethodPut, "/v1/customers/me", map[string]string{"name": "Ada", "email": "ada@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, customerID.Hex(), body["id"])
	assert.Equal(t, "Ada", body["name"])
	svc.AssertExpectations(t)
}

func TestCustomerHandler_UpdateMeRejectsBadInput(t *testing.T) {
	customerID := primitive.NewObjectID()
	svc := new(MockCustomerService)
	r := setupCustomerRouter(customerID, svc)

	w := performJSON(t, r, http.MethodPut, "/v1/customers/me", map[string]string{"email": "ada@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performJSON(t, r, http.MethodPut, "/v1/customers/me", map[string]string{"name": "Ada", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performJSON(t, setupCustomerRouter(primitive.NilObjectID, svc), http.MethodPut, "/v1/customers/me", map[string]string{"name": "Ada"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	svc.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCustomerHandler_GetMe(t *testing.T) {
	customerID := primitive.NewObjectID()
	svc := new(MockCustomerService)
	r := setupCustomerRouter(customerID, svc)

	svc.On("GetProfile", mock.Anything, customerID).Return(nil, repositories.ErrNotFound).Once()
	w := performJSON(t, r, http.MethodGet, "/v1/customers/me", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	svc.On("GetProfile", mock.Anything, customerID).Return(&models.Customer{Base: models.Base{ID: customerID}, Name: "Ada"}, nil).Once()
	w = performJSON(t, r, http.MethodGet, "/v1/customers/me", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ada", decodeBody(t, w)["name"])
	svc.AssertExpectations(t)
}
