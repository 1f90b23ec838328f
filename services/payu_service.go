package services

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	"github.com/cyphexlabs/cyphex_backend/config"
	"github.com/cyphexlabs/cyphex_backend/models"
)

// PayUService builds and verifies the gateway's pipe-delimited SHA-512
// hashes. The gateway convention uses opposite concatenation orders for the
// outbound request and the inbound callback.
type PayUService struct {
	merchantKey string
	salt        string
	mode        string
	backendURL  string
}

// NewPayUService creates a new PayU service instance
func NewPayUService(cfg config.PayUConfig) *PayUService {
	if cfg.MerchantKey == "" || cfg.Salt == "" {
		log.Printf("WARNING: PayU service constructed without full credentials")
	}
	return &PayUService{
		merchantKey: cfg.MerchantKey,
		salt:        cfg.Salt,
		mode:        cfg.Mode,
		backendURL:  cfg.BackendURL,
	}
}

// requestHash computes the outbound hash:
// sha512(key|txnid|amount|productinfo|firstname|email|||||||||||salt)
func (s *PayUService) requestHash(txnid, amount, productInfo, firstname, email string) string {
	hashString := fmt.Sprintf("%s|%s|%s|%s|%s|%s|||||||||||%s",
		s.merchantKey, txnid, amount, productInfo, firstname, email, s.salt)
	sum := sha512.Sum512([]byte(hashString))
	return hex.EncodeToString(sum[:])
}

// responseHash computes the inbound callback hash:
// sha512(salt|status|||||||||||email|firstname|productinfo|amount|txnid|key)
func (s *PayUService) responseHash(status, email, firstname, productInfo, amount, txnid string) string {
	hashString := fmt.Sprintf("%s|%s|||||||||||%s|%s|%s|%s|%s|%s",
		s.salt, status, email, firstname, productInfo, amount, txnid, s.merchantKey)
	sum := sha512.Sum512([]byte(hashString))
	return hex.EncodeToString(sum[:])
}

// VerifyCallback recomputes the expected hash over the posted fields and
// compares it to the claimed one in constant time. Returns false when any
// required field is missing. This is the only authorization on the callback
// endpoints: the hash is the authentication.
func (s *PayUService) VerifyCallback(cb models.PayUCallback) bool {
	if s.merchantKey == "" || s.salt == "" {
		return false
	}
	for _, field := range []string{cb.Status, cb.Firstname, cb.Amount, cb.TxnID, cb.ProductInfo, cb.Email, cb.Hash} {
		if field == "" {
			return false
		}
	}

	expected := s.responseHash(cb.Status, cb.Email, cb.Firstname, cb.ProductInfo, cb.Amount, cb.TxnID)
	posted := strings.ToLower(cb.Hash)

	return subtle.ConstantTimeCompare([]byte(expected), []byte(posted)) == 1
}

// BuildPaymentData produces the signed handoff payload for one payment
// attempt. The caller is responsible for having recorded txnid on the
// request first.
func (s *PayUService) BuildPaymentData(txnid string, service models.Service, client *models.User) models.PayUPaymentData {
	amount := fmt.Sprintf("%.1f", service.Price)
	firstname := client.FirstName
	if firstname == "" {
		firstname = strings.SplitN(client.Email, "@", 2)[0]
	}

	return models.PayUPaymentData{
		Key:             s.merchantKey,
		TxnID:           txnid,
		Amount:          amount,
		ProductInfo:     service.Name,
		Firstname:       firstname,
		Email:           client.Email,
		Phone:           "9999999999",
		SuccessURL:      s.backendURL + "/api/payu/success",
		FailureURL:      s.backendURL + "/api/payu/failure",
		Hash:            s.requestHash(txnid, amount, service.Name, firstname, client.Email),
		ServiceProvider: "payu_paisa",
		Mode:            s.mode,
	}
}
