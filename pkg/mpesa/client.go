package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Rayjuxtnx/restaurant-server/pkg/config"
	pkgerrors "github.com/Rayjuxtnx/restaurant-server/pkg/errors"
	"github.com/Rayjuxtnx/restaurant-server/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"

	tokenPath   = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"

	timestampLayout = "20060102150405"
)

var (
	errLoggerRequired  = errors.New("mpesa logger is required")
	errInvalidMpesaEnv = fmt.Errorf("mpesa environment must be %q or %q", sandboxEnv, productionEnv)
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://sandbox.safaricom.co.ke",
	productionEnv: "https://api.safaricom.co.ke",
}

// PushParams describes one STK push request.
type PushParams struct {
	// PhoneNumber must already be normalized to the 254XXXXXXXXX form.
	PhoneNumber string
	// Amount is rounded up to a whole unit; Daraja rejects fractional amounts.
	Amount decimal.Decimal
	// AccountReference overrides the configured default when set.
	AccountReference string
	// TransactionDesc overrides the configured default when set.
	TransactionDesc string
}

// Client wraps the Daraja STK push API with centralized auth, token caching,
// logging, and error mapping.
type Client struct {
	httpClient *http.Client
	cfg        config.MpesaConfig
	baseURL    string
	logger     *logger.Logger

	now func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient validates the environment and builds the Daraja wrapper. Missing
// credentials are not an error here: they surface per attempt so a deployment
// without merchant credentials can still serve everything else.
func NewClient(cfg config.MpesaConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env := cfg.Environment()
	baseURL, ok := baseURLs[env]
	if !ok {
		return nil, errInvalidMpesaEnv
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		baseURL:    baseURL,
		logger:     logg,
		now:        time.Now,
	}, nil
}

// Environment reports the normalized Daraja environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.cfg.Environment()
}

// Configured reports whether the merchant credentials are present.
func (c *Client) Configured() bool {
	if c == nil {
		return false
	}
	return strings.TrimSpace(c.cfg.ConsumerKey) != "" &&
		strings.TrimSpace(c.cfg.ConsumerSecret) != "" &&
		strings.TrimSpace(c.cfg.ShortCode) != "" &&
		strings.TrimSpace(c.cfg.Passkey) != "" &&
		strings.TrimSpace(c.cfg.CallbackURL) != ""
}

// STKPush initiates a customer-facing payment prompt and returns the
// synchronous gateway acknowledgment. The payment outcome arrives later on
// the configured callback URL.
func (c *Client) STKPush(ctx context.Context, params PushParams) (*STKPushResponse, error) {
	if !c.Configured() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mpesa credentials are not configured")
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	// Daraja derives the password from a UTC timestamp regardless of where the
	// process runs.
	timestamp := c.now().UTC().Format(timestampLayout)
	payload := stkPushPayload{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          pushPassword(c.cfg.ShortCode, c.cfg.Passkey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   transactionTypePayBill,
		Amount:            params.Amount.Ceil().String(),
		PartyA:            params.PhoneNumber,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       params.PhoneNumber,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  firstNonEmpty(params.AccountReference, c.cfg.AccountReference),
		TransactionDesc:   firstNonEmpty(params.TransactionDesc, c.cfg.TransactionDesc),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode stk push payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+stkPushPath, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build stk push request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	ctx = c.logger.WithFields(ctx, map[string]any{
		"phone_number": params.PhoneNumber,
		"amount":       payload.Amount,
	})
	c.logger.Info(ctx, "mpesa stk push request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mpesa stk push transport failure")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read stk push response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.rejectionError(ctx, resp.StatusCode, raw)
	}

	var pushResp STKPushResponse
	if err := json.Unmarshal(raw, &pushResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode stk push response")
	}
	if pushResp.ResponseCode != "0" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("mpesa rejected stk push: code=%s desc=%s", pushResp.ResponseCode, pushResp.ResponseDescription))
	}

	c.logger.Info(c.logger.WithCheckoutRequestID(ctx, pushResp.CheckoutRequestID), "mpesa stk push accepted")
	return &pushResp, nil
}

// accessToken returns a cached OAuth token, fetching a fresh one when the
// cached token is expired or within the configured leeway of expiring.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	leeway := c.cfg.TokenLeeway
	if leeway <= 0 {
		leeway = time.Minute
	}
	if c.token != "" && c.now().Before(c.tokenExpiry.Add(-leeway)) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+tokenPath, nil)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build token request")
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mpesa token transport failure")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read token response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The raw body is the only diagnostic Daraja gives for bad credentials.
		c.logger.Error(c.logger.WithField(ctx, "status", resp.StatusCode), "mpesa token request rejected", errors.New(string(raw)))
		return "", pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("mpesa token request failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode token response")
	}
	if tr.AccessToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "mpesa token response missing access_token")
	}

	ttl := 3600 * time.Second
	if secs, err := strconv.Atoi(tr.ExpiresIn); err == nil && secs > 0 {
		ttl = time.Duration(secs) * time.Second
	}
	c.token = tr.AccessToken
	c.tokenExpiry = c.now().Add(ttl)
	return c.token, nil
}

func (c *Client) rejectionError(ctx context.Context, status int, raw []byte) error {
	var gw gatewayError
	if err := json.Unmarshal(raw, &gw); err == nil && gw.ErrorMessage != "" {
		c.logger.Error(c.logger.WithField(ctx, "error_code", gw.ErrorCode), "mpesa rejected stk push", errors.New(gw.ErrorMessage))
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("mpesa rejected stk push: code=%s message=%s", gw.ErrorCode, gw.ErrorMessage))
	}
	c.logger.Error(c.logger.WithField(ctx, "status", status), "mpesa rejected stk push", errors.New(string(raw)))
	return pkgerrors.New(pkgerrors.CodeDependency,
		fmt.Sprintf("mpesa rejected stk push: status=%d body=%s", status, strings.TrimSpace(string(raw))))
}

func pushPassword(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
