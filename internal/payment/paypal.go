// Package payment talks to PayPal to verify captured checkout orders.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/resilience"
)

type PayPalConfig struct {
	ClientID     string `yaml:"client_id" envconfig:"CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" envconfig:"CLIENT_SECRET"`
	// BaseURL is https://api-m.sandbox.paypal.com or https://api-m.paypal.com
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL"`
}

var ErrOrderNotFound = errors.New("paypal order not found")

type PayPalClient struct {
	client  *resty.Client
	cfg     PayPalConfig
	breaker *resilience.Breaker
	now     func() time.Time

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type orderResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
				Amount struct {
					CurrencyCode string `json:"currency_code"`
					Value        string `json:"value"`
				} `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
	Payer struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
}

func NewPayPalClient(cfg PayPalConfig, breaker *resilience.Breaker) *PayPalClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-m.sandbox.paypal.com"
	}
	return &PayPalClient{
		client:  resty.New().SetTimeout(15 * time.Second).SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")),
		cfg:     cfg,
		breaker: breaker,
		now:     time.Now,
	}
}

// GetCapture fetches an order and returns its first capture.
func (p *PayPalClient) GetCapture(ctx context.Context, orderID string) (*domain.PaymentCapture, error) {
	logger.ExternalServiceCall("paypal", "getOrder", "order_id", orderID)
	order, err := resilience.Call(p.breaker, func() (*orderResponse, error) {
		token, err := p.token(ctx)
		if err != nil {
			return nil, err
		}
		var out orderResponse
		resp, err := p.client.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetResult(&out).
			SetPathParam("id", orderID).
			Get("/v2/checkout/orders/{id}")
		if err != nil {
			return nil, fmt.Errorf("paypal get order: %w", err)
		}
		switch {
		case resp.StatusCode() == http.StatusNotFound:
			return nil, nil
		case resp.IsError():
			return nil, fmt.Errorf("paypal get order returned status %d: %s", resp.StatusCode(), resp.String())
		}
		return &out, nil
	})
	logger.ExternalServiceResult("paypal", "getOrder", err, "order_id", orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	capture := &domain.PaymentCapture{
		OrderID:    order.ID,
		Status:     order.Status,
		PayerEmail: order.Payer.EmailAddress,
	}
	for _, unit := range order.PurchaseUnits {
		if len(unit.Payments.Captures) == 0 {
			continue
		}
		c := unit.Payments.Captures[0]
		amount, err := decimal.NewFromString(c.Amount.Value)
		if err != nil {
			return nil, fmt.Errorf("paypal capture amount %q: %w", c.Amount.Value, err)
		}
		capture.TransactionID = c.ID
		capture.Status = c.Status
		capture.Amount = amount
		capture.Currency = c.Amount.CurrencyCode
		break
	}
	return capture, nil
}

// token returns a cached OAuth access token, refreshing it a minute
// before it expires.
func (p *PayPalClient) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.accessToken != "" && p.now().Before(p.expiresAt) {
		return p.accessToken, nil
	}

	var out tokenResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBasicAuth(p.cfg.ClientID, p.cfg.ClientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&out).
		Post("/v1/oauth2/token")
	if err != nil {
		return "", fmt.Errorf("paypal token: %w", err)
	}
	if resp.IsError() || out.AccessToken == "" {
		return "", fmt.Errorf("paypal token returned status %d", resp.StatusCode())
	}

	p.accessToken = out.AccessToken
	p.expiresAt = p.now().Add(time.Duration(out.ExpiresIn)*time.Second - time.Minute)
	return p.accessToken, nil
}
