package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmgilman/go/econt"
	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.Handler, opts ...Option) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{
		WithBaseURL(server.URL),
		WithCredentials("user", "secret"),
		WithRetryInterval(time.Millisecond),
	}, opts...)
	p, err := NewProvider(opts...)
	require.NoError(t, err)
	return p
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     []Option
		wantURL  string
		wantUser string
		wantCode errors.ErrorCode
	}{
		{
			name:     "demo defaults",
			wantURL:  DemoBaseURL,
			wantUser: DemoUsername,
		},
		{
			name:     "production with credentials",
			opts:     []Option{WithEnvironment(EnvironmentProduction), WithCredentials("u", "p")},
			wantURL:  ProductionBaseURL,
			wantUser: "u",
		},
		{
			name:     "production without credentials",
			opts:     []Option{WithEnvironment(EnvironmentProduction)},
			wantCode: errors.CodeInvalidInput,
		},
		{
			name:     "unknown environment",
			opts:     []Option{WithEnvironment("staging")},
			wantCode: errors.CodeInvalidInput,
		},
		{
			name:     "invalid base url",
			opts:     []Option{WithBaseURL("not a url")},
			wantCode: errors.CodeInvalidInput,
		},
		{
			name:     "base url gets trailing slash",
			opts:     []Option{WithBaseURL("http://localhost:8080/services")},
			wantURL:  "http://localhost:8080/services/",
			wantUser: DemoUsername,
		},
		{
			name:     "negative retries",
			opts:     []Option{WithMaxRetries(-1)},
			wantCode: errors.CodeInvalidInput,
		},
		{
			name:     "zero rate",
			opts:     []Option{WithRateLimit(0, 1)},
			wantCode: errors.CodeInvalidInput,
		},
		{
			name:     "nil http client",
			opts:     []Option{WithHTTPClient(nil)},
			wantCode: errors.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := NewProvider(tt.opts...)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, p.baseURL.String())
			assert.Equal(t, tt.wantUser, p.username)
		})
	}
}

func TestProvider_GetOffices(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/"+endpointOffices, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user", user)
		assert.Equal(t, "secret", pass)

		var q econt.OfficeQuery
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, econt.OfficeQuery{CountryCode: "BGR", CityID: 41}, q)

		writeJSON(w, http.StatusOK, `{"offices":[
			{"id":1,"code":"1001","name":"София Център","nameEn":"Sofia Center","isAPS":false,
			 "address":{"city":{"id":41,"name":"София","country":{"code3":"BGR"}},"fullAddress":"ул. Витоша 1"}},
			{"id":2,"code":"1002","name":"София Юг","nameEn":"Sofia South","isAPS":true,
			 "address":{"city":{"id":41,"name":"София","country":{"code3":"BGR"}}}}
		]}`)
	})
	p := newTestProvider(t, mux)

	offices, err := p.GetOffices(context.Background(), econt.OfficeQuery{CountryCode: "BGR", CityID: 41})
	require.NoError(t, err)
	require.Len(t, offices, 2)
	assert.Equal(t, "1001", offices[0].Code)
	assert.Equal(t, "BGR", offices[0].Field("countryCode"))
	assert.Equal(t, "41", offices[1].Field("cityID"))
	assert.True(t, offices[1].IsAPS)
}

func TestProvider_Nomenclatures(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/"+endpointCountries, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"countries":[{"code2":"BG","code3":"BGR","name":"България","nameEn":"Bulgaria","isEU":true}]}`)
	})
	mux.HandleFunc("/"+endpointCities, func(w http.ResponseWriter, r *http.Request) {
		var q econt.CityQuery
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, "BGR", q.CountryCode)
		writeJSON(w, http.StatusOK, `{"cities":[{"id":41,"postCode":"1000","name":"София","nameEn":"Sofia","country":{"code3":"BGR"}}]}`)
	})
	mux.HandleFunc("/"+endpointStreets, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]int
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 41, req["cityID"])
		writeJSON(w, http.StatusOK, `{"streets":[{"id":7,"cityID":41,"name":"Витоша","nameEn":"Vitosha"}]}`)
	})
	p := newTestProvider(t, mux)
	ctx := context.Background()

	countries, err := p.GetCountries(ctx)
	require.NoError(t, err)
	require.Len(t, countries, 1)
	assert.True(t, countries[0].IsEU)

	cities, err := p.GetCities(ctx, econt.CityQuery{CountryCode: "BGR"})
	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, "Sofia", cities[0].NameEn)

	streets, err := p.GetStreets(ctx, 41)
	require.NoError(t, err)
	require.Len(t, streets, 1)
	assert.Equal(t, 41, streets[0].CityID)
}

func TestProvider_CreateLabel(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/"+endpointCreateLabel, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Label econt.Label     `json:"label"`
			Mode  econt.LabelMode `json:"mode"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, econt.LabelModeCalculate, req.Mode)
		assert.Equal(t, 2, req.Label.PackCount)
		writeJSON(w, http.StatusOK, `{"label":{"totalPrice":7.2,"currency":"BGN"}}`)
	})
	p := newTestProvider(t, mux)

	result, err := p.CreateLabel(context.Background(), econt.Label{PackCount: 2, Weight: 1}, econt.LabelModeCalculate)
	require.NoError(t, err)
	assert.Equal(t, 7.2, result.TotalPrice)
	assert.Equal(t, "BGN", result.Currency)
}

func TestProvider_GetShipmentStatuses(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/"+endpointShipmentStatuses, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"shipmentStatuses":[
			{"status":{"shipmentNumber":"111","shortDeliveryStatusEn":"Delivered","trackingEvents":[{"destinationType":"client","time":"2025-06-01T10:00:00+03:00"}]}},
			{"status":null,"error":{"type":"ExShipmentNotFound","message":"not found"}}
		]}`)
	})
	p := newTestProvider(t, mux)

	statuses, err := p.GetShipmentStatuses(context.Background(), []string{"111", "222"})
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "111", statuses[0].ShipmentNumber)
	assert.Len(t, statuses[0].TrackingEvents, 1)
}

func TestProvider_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  errors.ErrorCode
		wantMsg   string
		wantCalls int32
	}{
		{
			name:      "unauthorized",
			status:    http.StatusUnauthorized,
			body:      `{"type":"ExAccessDenied","message":"Access denied"}`,
			wantCode:  errors.CodeUnauthorized,
			wantMsg:   "Access denied",
			wantCalls: 1,
		},
		{
			name:      "validation with inner errors",
			status:    http.StatusBadRequest,
			body:      `{"type":"ExInvalidParam","message":"Invalid label","innerErrors":[{"message":"weight is required"}]}`,
			wantCode:  errors.CodeInvalidInput,
			wantMsg:   "Invalid label: weight is required",
			wantCalls: 1,
		},
		{
			name:      "server error is retried",
			status:    http.StatusInternalServerError,
			body:      `oops`,
			wantCode:  errors.CodeNetwork,
			wantMsg:   "econt API returned 500 Internal Server Error",
			wantCalls: 3,
		},
		{
			name:      "rate limited is retried",
			status:    http.StatusTooManyRequests,
			body:      `{}`,
			wantCode:  errors.CodeRateLimit,
			wantCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				writeJSON(w, tt.status, tt.body)
			})
			p := newTestProvider(t, handler, WithMaxRetries(2))

			_, err := p.GetCountries(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetCode(err))
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			assert.Equal(t, tt.wantCalls, calls.Load())

			var pe errors.PlatformError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, endpointCountries, pe.Context()["endpoint"])
			assert.Equal(t, tt.status, pe.Context()["status"])
		})
	}
}

func TestProvider_RetryRecovers(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, `{"message":"maintenance"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"countries":[{"code3":"BGR"}]}`)
	})
	p := newTestProvider(t, handler)

	countries, err := p.GetCountries(context.Background())
	require.NoError(t, err)
	assert.Len(t, countries, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestProvider_DecodeError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, `{"countries":`)
	})
	p := newTestProvider(t, handler)

	_, err := p.GetCountries(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeInternal, errors.GetCode(err))
	assert.Equal(t, int32(1), calls.Load(), "malformed bodies are not retried")
}

func TestProvider_ContextCancelled(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"countries":[]}`)
	})
	p := newTestProvider(t, handler)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.GetCountries(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProvider_RateLimit(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"countries":[]}`)
	})
	p := newTestProvider(t, handler, WithRateLimit(20, 1))

	start := time.Now()
	for range 3 {
		_, err := p.GetCountries(context.Background())
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
