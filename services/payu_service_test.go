package services

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cyphexlabs/cyphex_backend/config"
	"github.com/cyphexlabs/cyphex_backend/models"
)

func testPayUService() *PayUService {
	return NewPayUService(config.PayUConfig{
		MerchantKey: "testkey",
		Salt:        "testsalt",
		Mode:        "test",
		BackendURL:  "https://api.example.com",
	})
}

// signedCallback builds a callback with a correctly computed response hash,
// the way the gateway would.
func signedCallback(salt, key, status, email, firstname, productInfo, amount, txnid string) models.PayUCallback {
	hashString := fmt.Sprintf("%s|%s|||||||||||%s|%s|%s|%s|%s|%s",
		salt, status, email, firstname, productInfo, amount, txnid, key)
	sum := sha512.Sum512([]byte(hashString))

	return models.PayUCallback{
		Status:      status,
		Firstname:   firstname,
		Amount:      amount,
		TxnID:       txnid,
		ProductInfo: productInfo,
		Email:       email,
		Hash:        hex.EncodeToString(sum[:]),
	}
}

func TestVerifyCallbackValidHash(t *testing.T) {
	s := testPayUService()
	cb := signedCallback("testsalt", "testkey", "success", "client@example.com", "Alice", "Web Audit", "499.0", "txn-123")
	assert.True(t, s.VerifyCallback(cb))
}

func TestVerifyCallbackUppercaseHash(t *testing.T) {
	s := testPayUService()
	cb := signedCallback("testsalt", "testkey", "success", "client@example.com", "Alice", "Web Audit", "499.0", "txn-123")
	cb.Hash = strings.ToUpper(cb.Hash)
	assert.True(t, s.VerifyCallback(cb))
}

func TestVerifyCallbackTamperedAmount(t *testing.T) {
	s := testPayUService()
	cb := signedCallback("testsalt", "testkey", "success", "client@example.com", "Alice", "Web Audit", "499.0", "txn-123")
	cb.Amount = "1.0"
	assert.False(t, s.VerifyCallback(cb))
}

func TestVerifyCallbackTamperedStatus(t *testing.T) {
	s := testPayUService()
	cb := signedCallback("testsalt", "testkey", "failure", "client@example.com", "Alice", "Web Audit", "499.0", "txn-123")
	cb.Status = "success"
	assert.False(t, s.VerifyCallback(cb))
}

func TestVerifyCallbackWrongSalt(t *testing.T) {
	s := testPayUService()
	cb := signedCallback("othersalt", "testkey", "success", "client@example.com", "Alice", "Web Audit", "499.0", "txn-123")
	assert.False(t, s.VerifyCallback(cb))
}

func TestVerifyCallbackMissingFields(t *testing.T) {
	s := testPayUService()
	base := signedCallback("testsalt", "testkey", "success", "client@example.com", "Alice", "Web Audit", "499.0", "txn-123")

	blank := func(mutate func(*models.PayUCallback)) models.PayUCallback {
		cb := base
		mutate(&cb)
		return cb
	}

	cases := map[string]models.PayUCallback{
		"status":      blank(func(cb *models.PayUCallback) { cb.Status = "" }),
		"firstname":   blank(func(cb *models.PayUCallback) { cb.Firstname = "" }),
		"amount":      blank(func(cb *models.PayUCallback) { cb.Amount = "" }),
		"txnid":       blank(func(cb *models.PayUCallback) { cb.TxnID = "" }),
		"productinfo": blank(func(cb *models.PayUCallback) { cb.ProductInfo = "" }),
		"email":       blank(func(cb *models.PayUCallback) { cb.Email = "" }),
		"hash":        blank(func(cb *models.PayUCallback) { cb.Hash = "" }),
	}

	for name, cb := range cases {
		assert.False(t, s.VerifyCallback(cb), "missing %s should fail verification", name)
	}
}

func TestVerifyCallbackUnconfiguredService(t *testing.T) {
	s := NewPayUService(config.PayUConfig{})
	cb := signedCallback("", "", "success", "client@example.com", "Alice", "Web Audit", "499.0", "txn-123")
	assert.False(t, s.VerifyCallback(cb))
}

func TestBuildPaymentData(t *testing.T) {
	s := testPayUService()
	service := models.Service{
		ID:    primitive.NewObjectID(),
		Name:  "Web Audit",
		Price: 499,
	}
	client := &models.User{
		Email:     "client@example.com",
		FirstName: "Alice",
	}

	data := s.BuildPaymentData("txn-123", service, client)

	assert.Equal(t, "testkey", data.Key)
	assert.Equal(t, "txn-123", data.TxnID)
	assert.Equal(t, "499.0", data.Amount)
	assert.Equal(t, "Web Audit", data.ProductInfo)
	assert.Equal(t, "Alice", data.Firstname)
	assert.Equal(t, "client@example.com", data.Email)
	assert.Equal(t, "https://api.example.com/api/payu/success", data.SuccessURL)
	assert.Equal(t, "https://api.example.com/api/payu/failure", data.FailureURL)
	assert.Equal(t, "payu_paisa", data.ServiceProvider)
	assert.Equal(t, "test", data.Mode)

	// The outbound hash must match the documented pipe layout.
	expected := "testkey|txn-123|499.0|Web Audit|Alice|client@example.com|||||||||||testsalt"
	sum := sha512.Sum512([]byte(expected))
	assert.Equal(t, hex.EncodeToString(sum[:]), data.Hash)
}

func TestBuildPaymentDataFirstnameFallback(t *testing.T) {
	s := testPayUService()
	service := models.Service{Name: "Web Audit", Price: 499}
	client := &models.User{Email: "bob.smith@example.com"}

	data := s.BuildPaymentData("txn-456", service, client)
	require.Equal(t, "bob.smith", data.Firstname)
}

func TestRequestAndResponseHashesDiffer(t *testing.T) {
	s := testPayUService()

	out := s.requestHash("txn-1", "10.0", "Audit", "Alice", "a@example.com")
	in := s.responseHash("success", "a@example.com", "Alice", "Audit", "10.0", "txn-1")
	assert.NotEqual(t, out, in)
}
