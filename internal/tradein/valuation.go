// internal/tradein/valuation.go
package tradein

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"storefront-workers/internal/common/errors"
	httpclient "storefront-workers/internal/common/http"
	"storefront-workers/internal/common/logger"
)

// ValuationRequest uses the field names of the valuation service.
type ValuationRequest struct {
	BrandCode string `json:"codMarca"`
	ModelCode string `json:"codModelo"`
	Grade     Grade  `json:"grado"`
}

type Quote struct {
	Value    int64  `json:"value"`
	Currency string `json:"currency"`
}

type ValuationOptions struct {
	URL             string
	Timeout         time.Duration
	RateLimit       float64
	Burst           int
	DefaultCurrency string
	Transport       http.RoundTripper
	Logger          logger.Logger
}

type ValuationClient struct {
	url      string
	timeout  time.Duration
	currency string
	http     *httpclient.Client
	logger   logger.Logger
}

func NewValuationClient(opts ValuationOptions) (*ValuationClient, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("valuation url is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "COP"
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}

	httpOpts := []httpclient.Option{httpclient.WithRateLimit(opts.RateLimit, opts.Burst)}
	if opts.Transport != nil {
		httpOpts = append(httpOpts, httpclient.WithTransport(opts.Transport))
	}

	return &ValuationClient{
		url:      opts.URL,
		timeout:  opts.Timeout,
		currency: opts.DefaultCurrency,
		http:     httpclient.NewClient(opts.Timeout, httpOpts...),
		logger:   opts.Logger,
	}, nil
}

// Calculate asks the valuation service for the value of key at grade.
func (c *ValuationClient) Calculate(ctx context.Context, key DeviceKey, grade Grade) (*Quote, error) {
	if err := key.Validate(); err != nil {
		return nil, errors.NewInvalidDeviceKeyError(err.Error())
	}
	if !grade.Valid() {
		return nil, errors.NewInputValidationError(fmt.Sprintf("grade %q must be A, B or C", grade))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.http.PostJSON(ctx, c.url, ValuationRequest{
		BrandCode: key.BrandCode,
		ModelCode: key.ModelCode,
		Grade:     grade,
	})
	if err != nil {
		var netErr net.Error
		if stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil ||
			(stderrors.As(err, &netErr) && netErr.Timeout()) {
			return nil, errors.NewValuationTimeoutError()
		}
		return nil, errors.NewValuationFailedError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.NewValuationFailedError(err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, errors.NewValuationFailedError(fmt.Errorf("valuation service returned %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		c.logger.Warn("valuation rejected", map[string]interface{}{
			"deviceKey":  key.String(),
			"grade":      grade,
			"statusCode": resp.StatusCode,
		})
		return nil, errors.NewValuationRejectedError(resp.StatusCode, string(body))
	}

	var q Quote
	if err := json.Unmarshal(body, &q); err != nil {
		return nil, errors.NewValuationFailedError(fmt.Errorf("decode valuation response: %w", err))
	}
	if q.Value < 0 {
		return nil, errors.NewValuationFailedError(fmt.Errorf("negative valuation %d", q.Value))
	}
	if q.Currency == "" {
		q.Currency = c.currency
	}
	return &q, nil
}
