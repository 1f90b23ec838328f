// models/payu.go
package models

// PayUCallback is the flat field set posted by the gateway to the success
// and failure endpoints. The posted hash is the only authentication on these
// endpoints; there is no session or token check.
type PayUCallback struct {
	Status      string `json:"status" form:"status"`
	Firstname   string `json:"firstname" form:"firstname"`
	Amount      string `json:"amount" form:"amount"`
	TxnID       string `json:"txnid" form:"txnid"`
	ProductInfo string `json:"productinfo" form:"productinfo"`
	Email       string `json:"email" form:"email"`
	Hash        string `json:"hash" form:"hash"`
}

// PayUPaymentData is the signed handoff payload returned to the front end,
// which posts it to the gateway to start the hosted payment flow.
type PayUPaymentData struct {
	Key             string `json:"key"`
	TxnID           string `json:"txnid"`
	Amount          string `json:"amount"`
	ProductInfo     string `json:"productinfo"`
	Firstname       string `json:"firstname"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	SuccessURL      string `json:"surl"`
	FailureURL      string `json:"furl"`
	Hash            string `json:"hash"`
	ServiceProvider string `json:"service_provider"`
	Mode            string `json:"payu_mode"`
}
