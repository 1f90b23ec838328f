package controllers

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/cyphexlabs/cyphex_backend/config"
	"github.com/cyphexlabs/cyphex_backend/middleware"
	"github.com/cyphexlabs/cyphex_backend/models"
	"github.com/cyphexlabs/cyphex_backend/repositories"
	"github.com/cyphexlabs/cyphex_backend/services"
	"github.com/cyphexlabs/cyphex_backend/websocket"
)

func newTestPaymentController(mt *mtest.T) *PaymentController {
	return NewPaymentController(
		mt.Client,
		repositories.NewServiceRequestRepository(mt.Client),
		repositories.NewUserRepository(mt.Client),
		services.NewPayUService(config.PayUConfig{
			MerchantKey: "testkey",
			Salt:        "testsalt",
			Mode:        "test",
			BackendURL:  "https://api.example.com",
		}),
		websocket.NewHub(),
		"https://app.example.com",
	)
}

func authenticatedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, userID primitive.ObjectID) echo.Context {
	c := e.NewContext(req, rec)
	claims := &middleware.JwtCustomClaims{UserID: userID.Hex(), Email: "client@example.com"}
	c.Set("user", jwt.NewWithClaims(jwt.SigningMethodHS256, claims))
	return c
}

// gatewayResponseHash signs a callback the way the gateway does.
func gatewayResponseHash(status, email, firstname, productInfo, amount, txnid string) string {
	hashString := fmt.Sprintf("testsalt|%s|||||||||||%s|%s|%s|%s|%s|testkey",
		status, email, firstname, productInfo, amount, txnid)
	sum := sha512.Sum512([]byte(hashString))
	return hex.EncodeToString(sum[:])
}

func callbackForm(status, txnid string) url.Values {
	form := url.Values{}
	form.Set("status", status)
	form.Set("firstname", "Alice")
	form.Set("amount", "499.0")
	form.Set("txnid", txnid)
	form.Set("productinfo", "Web Audit")
	form.Set("email", "client@example.com")
	form.Set("hash", gatewayResponseHash(status, "client@example.com", "Alice", "Web Audit", "499.0", txnid))
	return form
}

func TestInitiatePaymentOutsideAwaitingPaymentIsConflict(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("request already in progress", func(mt *mtest.T) {
		userID := primitive.NewObjectID()
		reqID := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "cyphex.users", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: userID},
				{Key: "email", Value: "client@example.com"},
				{Key: "isActive", Value: true},
			}),
			mtest.CreateCursorResponse(1, "cyphex.serviceRequests", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: reqID},
				{Key: "clientId", Value: userID},
				{Key: "status", Value: string(models.StatusInProgress)},
			}),
		)

		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/requests/"+reqID.Hex()+"/pay", nil)
		rec := httptest.NewRecorder()
		c := authenticatedContext(e, req, rec, userID)
		c.SetParamNames("id")
		c.SetParamValues(reqID.Hex())

		pc := newTestPaymentController(mt)
		require.NoError(mt, pc.InitiatePayment(c))

		assert.Equal(mt, http.StatusConflict, rec.Code)
		var resp models.Response
		require.NoError(mt, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(mt, "The operation conflicts with the current state", resp.Message)
	})
}

func TestPaymentSuccessDuplicateCallbackRedirectsWithoutTransition(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("request already progressed past awaiting payment", func(mt *mtest.T) {
		reqID := primitive.NewObjectID()
		mt.AddMockResponses(
			// The CAS finds nothing to move
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			// The request exists and already left awaiting_payment
			mtest.CreateCursorResponse(1, "cyphex.serviceRequests", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: reqID},
				{Key: "status", Value: string(models.StatusInProgress)},
				{Key: "paymentGatewayTxnId", Value: "txn-dup"},
			}),
		)

		e := echo.New()
		form := callbackForm("success", "txn-dup")
		req := httptest.NewRequest(http.MethodPost, "/api/payu/success", strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		pc := newTestPaymentController(mt)
		require.NoError(mt, pc.PaymentSuccess(c))

		assert.Equal(mt, http.StatusFound, rec.Code)
		assert.Equal(mt, "https://app.example.com/payment/success", rec.Header().Get(echo.HeaderLocation))
	})
}

func TestPaymentSuccessBadHashNeverTouchesState(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("tampered hash redirects to failure", func(mt *mtest.T) {
		e := echo.New()
		form := callbackForm("success", "txn-bad")
		form.Set("amount", "1.0") // breaks the signed hash

		req := httptest.NewRequest(http.MethodPost, "/api/payu/success", strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		pc := newTestPaymentController(mt)
		require.NoError(mt, pc.PaymentSuccess(c))

		assert.Equal(mt, http.StatusFound, rec.Code)
		assert.Equal(mt, "https://app.example.com/payment/failure", rec.Header().Get(echo.HeaderLocation))
		assert.Empty(mt, mt.GetAllStartedEvents())
	})
}
