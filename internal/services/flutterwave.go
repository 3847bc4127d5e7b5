package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// PaymentVerification is the result of asking the gateway about one
// transaction. Status "successful" is the only value that completes a
// purchase.
type PaymentVerification struct {
	Status        string
	TxRef         string
	TransactionID string
	Amount        float64
	Currency      string
	PaymentType   *string
}

func (v *PaymentVerification) Successful() bool {
	return strings.EqualFold(v.Status, "successful")
}

type PaymentVerifier interface {
	VerifyTransaction(ctx context.Context, transactionID string) (*PaymentVerification, error)
	VerifyByReference(ctx context.Context, txRef string) (*PaymentVerification, error)
}

type FlutterwaveClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewFlutterwaveClient(baseURL, secretKey string) *FlutterwaveClient {
	return &FlutterwaveClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: http.DefaultClient,
	}
}

func (c *FlutterwaveClient) VerifyTransaction(ctx context.Context, transactionID string) (*PaymentVerification, error) {
	endpoint := fmt.Sprintf("%s/transactions/%s/verify", c.baseURL, url.PathEscape(transactionID))
	return c.verify(ctx, endpoint)
}

func (c *FlutterwaveClient) VerifyByReference(ctx context.Context, txRef string) (*PaymentVerification, error) {
	endpoint := fmt.Sprintf("%s/transactions/verify_by_reference?tx_ref=%s", c.baseURL, url.QueryEscape(txRef))
	return c.verify(ctx, endpoint)
}

func (c *FlutterwaveClient) verify(ctx context.Context, endpoint string) (*PaymentVerification, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build verification request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify transaction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("verify transaction: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response struct {
		Status string `json:"status"`
		Data   struct {
			ID          int64   `json:"id"`
			TxRef       string  `json:"tx_ref"`
			Status      string  `json:"status"`
			Amount      float64 `json:"amount"`
			Currency    string  `json:"currency"`
			PaymentType *string `json:"payment_type"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode verification response: %w", err)
	}
	if !strings.EqualFold(response.Status, "success") {
		return nil, fmt.Errorf("verification request rejected: %s", response.Status)
	}

	return &PaymentVerification{
		Status:        response.Data.Status,
		TxRef:         response.Data.TxRef,
		TransactionID: strconv.FormatInt(response.Data.ID, 10),
		Amount:        response.Data.Amount,
		Currency:      response.Data.Currency,
		PaymentType:   response.Data.PaymentType,
	}, nil
}
