package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sowlabs/transfer-office/pkg/logger"
	"github.com/valyala/fasthttp"
)

var (
	ErrNoAvailableProviders = errors.New("no available providers")
)

type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "DELIVERED"
	StatusFailed    DeliveryStatus = "FAILED"
	StatusPending   DeliveryStatus = "PENDING"
)

type SendRequest struct {
	MessageID   string `json:"message_id"`
	PhoneNumber string `json:"phone_number"`
	Content     string `json:"content"`
}

type SendResponse struct {
	MessageID   string         `json:"message_id"`
	Status      DeliveryStatus `json:"status"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
	ErrorCode   string         `json:"error_code,omitempty"`
	ErrorMsg    string         `json:"error_message,omitempty"`
	ProviderID  string         `json:"provider_id"`
	ProcessedAt time.Time      `json:"processed_at"`
}

type ProviderConfig struct {
	Name string
	URL  string
}

// provider tracks consecutive failures; after maxConsecutiveFails the
// provider is skipped until cooldown expires.
type provider struct {
	config    ProviderConfig
	fails     atomic.Int32
	downUntil atomic.Int64
}

const maxConsecutiveFails = 3

type Config struct {
	Providers  []ProviderConfig
	Timeout    time.Duration
	MaxRetries int
	Cooldown   time.Duration
}

// Client delivers receipt SMS through an ordered list of HTTP
// providers, failing over to the next one when a provider errors or is
// cooling down.
type Client struct {
	providers []*provider
	http      *fasthttp.Client
	timeout   time.Duration
	cooldown  time.Duration
}

func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	cooldown := cfg.Cooldown
	if cooldown == 0 {
		cooldown = 30 * time.Second
	}

	providers := make([]*provider, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		if pc.URL == "" {
			continue
		}
		providers = append(providers, &provider{config: pc})
	}

	return &Client{
		providers: providers,
		http: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		timeout:  timeout,
		cooldown: cooldown,
	}
}

// SendSMS tries each healthy provider in order and returns the first
// successful response.
func (c *Client) SendSMS(ctx context.Context, req *SendRequest) (*SendResponse, error) {
	if len(c.providers) == 0 {
		return nil, ErrNoAvailableProviders
	}

	var lastErr error
	now := time.Now().Unix()

	for _, p := range c.providers {
		if p.downUntil.Load() > now {
			continue
		}

		res, err := c.send(p, req)
		if err != nil {
			lastErr = err
			if p.fails.Add(1) >= maxConsecutiveFails {
				p.downUntil.Store(time.Now().Add(c.cooldown).Unix())
				p.fails.Store(0)
				logger.Warn("provider cooling down",
					"provider", p.config.Name,
					"cooldown", c.cooldown.String())
			}
			continue
		}

		p.fails.Store(0)
		return res, nil
	}

	if lastErr == nil {
		return nil, ErrNoAvailableProviders
	}
	return nil, lastErr
}

func (c *Client) send(p *provider, req *SendRequest) (*SendResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq := fasthttp.AcquireRequest()
	httpRes := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(httpReq)
	defer fasthttp.ReleaseResponse(httpRes)

	httpReq.SetRequestURI(p.config.URL + "/api/v1/sms/send")
	httpReq.Header.SetMethod(fasthttp.MethodPost)
	httpReq.Header.SetContentType("application/json")
	httpReq.SetBody(body)

	if err := c.http.DoTimeout(httpReq, httpRes, c.timeout); err != nil {
		return nil, fmt.Errorf("provider %s: %w", p.config.Name, err)
	}

	if httpRes.StatusCode() >= 500 {
		return nil, fmt.Errorf("provider %s: status %d", p.config.Name, httpRes.StatusCode())
	}

	var res SendResponse
	if err := json.Unmarshal(httpRes.Body(), &res); err != nil {
		return nil, fmt.Errorf("provider %s: decode response: %w", p.config.Name, err)
	}
	if res.ProviderID == "" {
		res.ProviderID = p.config.Name
	}

	return &res, nil
}
