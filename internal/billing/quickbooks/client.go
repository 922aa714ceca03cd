package quickbooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	ProductionBaseURL = "https://quickbooks.api.intuit.com"
	SandboxBaseURL    = "https://sandbox-quickbooks.api.intuit.com"
	TokenURL          = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"
	defaultMinorVer   = "70"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	RealmID      string
	BaseURL      string
	// ServiceItemID is the QuickBooks item sales receipt lines are booked against.
	ServiceItemID string
	MinorVersion  string

	// TokenSource replaces the refresh-token flow (tests).
	TokenSource oauth2.TokenSource
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Enabled reports whether enough is configured to talk to QuickBooks.
func (c Config) Enabled() bool {
	return c.RealmID != "" && (c.TokenSource != nil || (c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""))
}

type Client struct {
	http          *http.Client
	baseURL       *url.URL
	realmID       string
	serviceItemID string
	minorVersion  string
	logger        *slog.Logger
}

func NewClient(cfg Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("quickbooks: realm id and oauth credentials are required")
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = ProductionBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("quickbooks: parse base url: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	minor := cfg.MinorVersion
	if minor == "" {
		minor = defaultMinorVer
	}
	item := cfg.ServiceItemID
	if item == "" {
		item = "1"
	}

	ctx := context.Background()
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}
	ts := cfg.TokenSource
	if ts == nil {
		oc := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		}
		ts = oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	}
	httpClient := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(nil, ts))
	httpClient.Timeout = 20 * time.Second

	return &Client{
		http:          httpClient,
		baseURL:       u,
		realmID:       cfg.RealmID,
		serviceItemID: item,
		minorVersion:  minor,
		logger:        logger.With("component", "quickbooks"),
	}, nil
}

// APIError is a non-2xx answer from QuickBooks.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	bt := strings.TrimSpace(e.Body)
	if bt == "" {
		return fmt.Sprintf("quickbooks error: %s", e.Status)
	}
	return fmt.Sprintf("quickbooks error: %s: %s", e.Status, bt)
}

// FindCustomerByDisplayName returns the customer with that display name, or nil.
// Display names are unique in QuickBooks, which makes them the dedup key.
func (c *Client) FindCustomerByDisplayName(ctx context.Context, name string) (*Customer, error) {
	q := fmt.Sprintf("select * from Customer where DisplayName = '%s'", escapeQuery(name))
	var resp queryResponse
	if err := c.do(ctx, http.MethodGet, "query", url.Values{"query": {q}}, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.QueryResponse.Customer) == 0 {
		return nil, nil
	}
	cust := resp.QueryResponse.Customer[0]
	return &cust, nil
}

func (c *Client) CreateCustomer(ctx context.Context, cust Customer) (*Customer, error) {
	var resp customerResponse
	if err := c.do(ctx, http.MethodPost, "customer", nil, cust, &resp); err != nil {
		return nil, err
	}
	c.logger.Info("customer created", "customer_id", resp.Customer.ID, "display_name", resp.Customer.DisplayName)
	return &resp.Customer, nil
}

// CreateSalesReceipt books a received payment. requestID makes retries
// idempotent on the QuickBooks side.
func (c *Client) CreateSalesReceipt(ctx context.Context, requestID string, receipt SalesReceipt) (*SalesReceipt, error) {
	for i := range receipt.Line {
		if receipt.Line[i].SalesItemLineDetail != nil && receipt.Line[i].SalesItemLineDetail.ItemRef.Value == "" {
			receipt.Line[i].SalesItemLineDetail.ItemRef.Value = c.serviceItemID
		}
	}
	params := url.Values{}
	if requestID != "" {
		params.Set("requestid", requestID)
	}
	var resp salesReceiptResponse
	if err := c.do(ctx, http.MethodPost, "salesreceipt", params, receipt, &resp); err != nil {
		return nil, err
	}
	c.logger.Info("sales receipt created", "sales_receipt_id", resp.SalesReceipt.ID, "request_id", requestID)
	return &resp.SalesReceipt, nil
}

func (c *Client) do(ctx context.Context, method, resource string, params url.Values, body, out any) error {
	u := *c.baseURL
	u.Path = path.Join(u.Path, "v3", "company", c.realmID, resource)
	if params == nil {
		params = url.Values{}
	}
	params.Set("minorversion", c.minorVersion)
	u.RawQuery = params.Encode()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("quickbooks: marshal %s: %w", resource, err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("quickbooks: %s %s: %w", method, resource, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("quickbooks: decode %s: %w", resource, err)
	}
	return nil
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
