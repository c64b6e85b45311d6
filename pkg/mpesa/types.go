package mpesa

import "encoding/json"

const transactionTypePayBill = "CustomerPayBillOnline"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResponse is the synchronous acknowledgment Daraja returns for an
// accepted push request. The payment outcome arrives later on the callback.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type gatewayError struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// CallbackEnvelope is the wrapper Daraja posts to the callback URL.
type CallbackEnvelope struct {
	Body struct {
		STKCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

// STKCallback carries the final result of one push request.
type STKCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        int               `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

// Succeeded reports whether the payer completed the payment.
func (c STKCallback) Succeeded() bool {
	return c.ResultCode == 0
}

// Items returns the metadata items, tolerating an absent metadata block.
func (c STKCallback) Items() []MetadataItem {
	if c.CallbackMetadata == nil {
		return nil
	}
	return c.CallbackMetadata.Item
}

type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

// MetadataItem is a name/value pair from the callback metadata. Values arrive
// as strings or numbers depending on the field.
type MetadataItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value,omitempty"`
}

// StringValue renders the item value as a string regardless of its JSON type.
func (i MetadataItem) StringValue() (string, bool) {
	if len(i.Value) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(i.Value, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(i.Value, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

// NumberValue renders the item value as a json.Number when possible.
func (i MetadataItem) NumberValue() (json.Number, bool) {
	if len(i.Value) == 0 {
		return "", false
	}
	var n json.Number
	if err := json.Unmarshal(i.Value, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(i.Value, &s); err == nil && s != "" {
		return json.Number(s), true
	}
	return "", false
}
