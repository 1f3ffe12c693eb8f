// Package rest provides an Econt provider implementation over the Econt
// JSON REST services.
//
// Every call is a JSON POST authenticated with HTTP basic auth. Requests
// that fail with a network error, a 5xx or a 429 are retried with
// exponential backoff; an optional client-side rate limit spaces requests.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmgilman/go/econt"
	"github.com/jmgilman/go/errors"
	"golang.org/x/time/rate"
)

// Environment selects the Econt API deployment.
type Environment string

const (
	// EnvironmentDemo is the public test deployment.
	EnvironmentDemo Environment = "demo"
	// EnvironmentProduction is the live deployment.
	EnvironmentProduction Environment = "production"
)

// Base URLs of the Econt deployments.
const (
	DemoBaseURL       = "https://demo.econt.com/ee/services/"
	ProductionBaseURL = "https://ee.econt.com/services/"
)

// Public credentials of the demo deployment, used when none are configured.
const (
	DemoUsername = "iasp-dev"
	DemoPassword = "1Asp-dev"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = 500 * time.Millisecond
	maxResponseSize      = 64 << 20
)

// Service endpoints, relative to the base URL.
const (
	endpointCountries        = "Nomenclatures/NomenclaturesService.getCountries.json"
	endpointCities           = "Nomenclatures/NomenclaturesService.getCities.json"
	endpointOffices          = "Nomenclatures/NomenclaturesService.getOffices.json"
	endpointStreets          = "Nomenclatures/NomenclaturesService.getStreets.json"
	endpointCreateLabel      = "Shipments/LabelService.createLabel.json"
	endpointShipmentStatuses = "Shipments/ShipmentService.getShipmentStatuses.json"
)

var _ econt.Provider = (*Provider)(nil)

// Provider implements econt.Provider over HTTP.
type Provider struct {
	baseURL       *url.URL
	username      string
	password      string
	httpClient    *http.Client
	maxRetries    uint64
	retryInterval time.Duration
	limiter       *rate.Limiter
}

// config holds configuration for Provider.
type config struct {
	environment   Environment
	baseURL       string
	username      string
	password      string
	httpClient    *http.Client
	maxRetries    int
	retryInterval time.Duration
	limiter       *rate.Limiter
}

// Option configures the REST provider.
type Option func(*config) error

// NewProvider creates a provider for the Econt REST services.
//
// Without options it targets the demo deployment with its public credentials.
// The production deployment requires WithCredentials.
//
// Example:
//
//	provider, err := rest.NewProvider(
//	    rest.WithEnvironment(rest.EnvironmentProduction),
//	    rest.WithCredentials(user, pass),
//	    rest.WithRateLimit(5, 10),
//	)
func NewProvider(opts ...Option) (*Provider, error) {
	cfg := &config{
		environment:   EnvironmentDemo,
		maxRetries:    defaultMaxRetries,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	rawURL := cfg.baseURL
	if rawURL == "" {
		rawURL = DemoBaseURL
		if cfg.environment == EnvironmentProduction {
			rawURL = ProductionBaseURL
		}
	}
	base, err := url.Parse(rawURL)
	if err != nil {
		err := errors.Wrap(err, errors.CodeInvalidInput, "invalid base URL")
		return nil, errors.WithContext(err, "field", "baseURL")
	}

	if cfg.username == "" {
		if cfg.environment == EnvironmentProduction {
			err := errors.New(errors.CodeInvalidInput, "production environment requires credentials")
			return nil, errors.WithContext(err, "field", "credentials")
		}
		cfg.username, cfg.password = DemoUsername, DemoPassword
	}

	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Provider{
		baseURL:       base,
		username:      cfg.username,
		password:      cfg.password,
		httpClient:    cfg.httpClient,
		maxRetries:    uint64(cfg.maxRetries),
		retryInterval: cfg.retryInterval,
		limiter:       cfg.limiter,
	}, nil
}

// WithCredentials sets the basic auth username and password.
func WithCredentials(username, password string) Option {
	return func(cfg *config) error {
		if username == "" {
			err := errors.New(errors.CodeInvalidInput, "username cannot be empty")
			return errors.WithContext(err, "field", "username")
		}
		cfg.username, cfg.password = username, password
		return nil
	}
}

// WithEnvironment selects the demo or production deployment.
func WithEnvironment(env Environment) Option {
	return func(cfg *config) error {
		switch env {
		case EnvironmentDemo, EnvironmentProduction:
			cfg.environment = env
			return nil
		default:
			err := errors.Newf(errors.CodeInvalidInput, "unknown environment %q", env)
			return errors.WithContext(err, "field", "environment")
		}
	}
}

// WithBaseURL overrides the base URL chosen by the environment.
func WithBaseURL(rawURL string) Option {
	return func(cfg *config) error {
		u, err := url.Parse(rawURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			err := errors.Newf(errors.CodeInvalidInput, "invalid base URL %q", rawURL)
			return errors.WithContext(err, "field", "baseURL")
		}
		if u.Path == "" || u.Path[len(u.Path)-1] != '/' {
			u.Path += "/"
		}
		cfg.baseURL = u.String()
		return nil
	}
}

// WithHTTPClient sets the HTTP client. Its Timeout bounds each attempt.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *config) error {
		if client == nil {
			err := errors.New(errors.CodeInvalidInput, "http client cannot be nil")
			return errors.WithContext(err, "field", "httpClient")
		}
		cfg.httpClient = client
		return nil
	}
}

// WithMaxRetries sets how many times a failed request is repeated. Zero disables retries.
func WithMaxRetries(n int) Option {
	return func(cfg *config) error {
		if n < 0 {
			err := errors.New(errors.CodeInvalidInput, "max retries cannot be negative")
			return errors.WithContext(err, "field", "maxRetries")
		}
		cfg.maxRetries = n
		return nil
	}
}

// WithRetryInterval sets the first backoff delay. Later delays grow exponentially.
func WithRetryInterval(d time.Duration) Option {
	return func(cfg *config) error {
		if d <= 0 {
			err := errors.New(errors.CodeInvalidInput, "retry interval must be positive")
			return errors.WithContext(err, "field", "retryInterval")
		}
		cfg.retryInterval = d
		return nil
	}
}

// WithRateLimit allows at most rps requests per second with bursts of burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(cfg *config) error {
		if rps <= 0 || burst <= 0 {
			err := errors.New(errors.CodeInvalidInput, "rate limit and burst must be positive")
			return errors.WithContextMap(err, map[string]interface{}{"rps": rps, "burst": burst})
		}
		cfg.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

// GetCountries returns every country.
func (p *Provider) GetCountries(ctx context.Context) ([]econt.Country, error) {
	var resp struct {
		Countries []econt.Country `json:"countries"`
	}
	if err := p.call(ctx, endpointCountries, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Countries, nil
}

// GetCities returns the cities matching q.
func (p *Provider) GetCities(ctx context.Context, q econt.CityQuery) ([]econt.City, error) {
	var resp struct {
		Cities []econt.City `json:"cities"`
	}
	if err := p.call(ctx, endpointCities, q, &resp); err != nil {
		return nil, err
	}
	return resp.Cities, nil
}

// GetOffices returns the offices matching q.
func (p *Provider) GetOffices(ctx context.Context, q econt.OfficeQuery) ([]econt.Office, error) {
	var resp struct {
		Offices []econt.Office `json:"offices"`
	}
	if err := p.call(ctx, endpointOffices, q, &resp); err != nil {
		return nil, err
	}
	return resp.Offices, nil
}

// GetStreets returns the streets of a city.
func (p *Provider) GetStreets(ctx context.Context, cityID int) ([]econt.Street, error) {
	req := struct {
		CityID int `json:"cityID"`
	}{CityID: cityID}
	var resp struct {
		Streets []econt.Street `json:"streets"`
	}
	if err := p.call(ctx, endpointStreets, req, &resp); err != nil {
		return nil, err
	}
	return resp.Streets, nil
}

// CreateLabel creates or prices a shipment.
func (p *Provider) CreateLabel(ctx context.Context, label econt.Label, mode econt.LabelMode) (*econt.LabelResult, error) {
	req := struct {
		Label econt.Label     `json:"label"`
		Mode  econt.LabelMode `json:"mode"`
	}{Label: label, Mode: mode}
	var resp struct {
		Label econt.LabelResult `json:"label"`
	}
	if err := p.call(ctx, endpointCreateLabel, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Label, nil
}

// GetShipmentStatuses returns the statuses of the known shipments among numbers.
func (p *Provider) GetShipmentStatuses(ctx context.Context, numbers []string) ([]econt.ShipmentStatus, error) {
	req := struct {
		ShipmentNumbers []string `json:"shipmentNumbers"`
	}{ShipmentNumbers: numbers}
	var resp struct {
		ShipmentStatuses []struct {
			Status *econt.ShipmentStatus `json:"status"`
			Error  *apiError             `json:"error"`
		} `json:"shipmentStatuses"`
	}
	if err := p.call(ctx, endpointShipmentStatuses, req, &resp); err != nil {
		return nil, err
	}

	statuses := make([]econt.ShipmentStatus, 0, len(resp.ShipmentStatuses))
	for _, s := range resp.ShipmentStatuses {
		if s.Error != nil || s.Status == nil || s.Status.ShipmentNumber == "" {
			continue
		}
		statuses = append(statuses, *s.Status)
	}
	return statuses, nil
}

// call POSTs req to endpoint and decodes the response into resp, retrying
// transient failures.
func (p *Provider) call(ctx context.Context, endpoint string, req, resp any) error {
	body, err := json.Marshal(req)
	if err != nil {
		err := errors.Wrap(err, errors.CodeInvalidInput, "failed to encode request")
		return errors.WithContext(err, "endpoint", endpoint)
	}
	target := p.baseURL.JoinPath(endpoint).String()

	op := func() error {
		return p.attempt(ctx, endpoint, target, body, resp)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.retryInterval
	bo.MaxElapsedTime = 0
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, p.maxRetries), ctx))
}

// attempt performs one request. Errors that repeating cannot fix are
// marked permanent.
func (p *Provider) attempt(ctx context.Context, endpoint, target string, body []byte, resp any) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(errors.Wrap(err, errors.CodeTimeout, "rate limiter wait aborted"))
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(errors.Wrap(err, errors.CodeInternal, "failed to build request"))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(p.username, p.password)

	res, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return backoff.Permanent(ctxErr)
		}
		err := errors.Wrap(err, errors.CodeNetwork, "econt API request failed")
		return errors.WithContext(err, "endpoint", endpoint)
	}
	defer func() { _ = res.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		err := errors.Wrap(err, errors.CodeNetwork, "failed to read response")
		return errors.WithContext(err, "endpoint", endpoint)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var parsed *apiError
		var apiBody apiError
		if json.Unmarshal(data, &apiBody) == nil {
			parsed = &apiBody
		}
		httpErr := newHTTPError(endpoint, res.StatusCode, parsed)
		if retryableStatus(res.StatusCode) {
			return httpErr
		}
		return backoff.Permanent(httpErr)
	}

	if err := json.Unmarshal(data, resp); err != nil {
		err := errors.Wrap(err, errors.CodeInternal, "failed to decode response")
		return backoff.Permanent(errors.WithContext(err, "endpoint", endpoint))
	}
	return nil
}
