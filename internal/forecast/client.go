package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/demandcast/backend-go/internal/domain"
)

// Forecaster invokes the external probabilistic forecasting service with a
// batch of time series instances and returns one raw prediction per instance,
// in request order.
type Forecaster interface {
	Forecast(ctx context.Context, instances []domain.TimeSeriesInstance) ([]RawPrediction, error)
}

type forecastRequest struct {
	Instances     []domain.TimeSeriesInstance `json:"instances"`
	Configuration forecastConfiguration       `json:"configuration"`
}

type forecastConfiguration struct {
	NumSamples  int      `json:"num_samples"`
	OutputTypes []string `json:"output_types"`
	Quantiles   []string `json:"quantiles"`
}

type forecastResponse struct {
	Predictions []RawPrediction `json:"predictions"`
}

// HTTPForecaster calls the forecasting endpoint over JSON HTTP. Every call is
// guarded by the configured timeout; expiry surfaces as ErrForecastTimeout so
// the caller can take the fallback branch.
type HTTPForecaster struct {
	endpointURL string
	client      *http.Client
	numSamples  int
}

func NewHTTPForecaster(endpointURL string, timeout time.Duration) *HTTPForecaster {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPForecaster{
		endpointURL: endpointURL,
		client:      &http.Client{Timeout: timeout},
		numSamples:  100,
	}
}

func (f *HTTPForecaster) Forecast(ctx context.Context, instances []domain.TimeSeriesInstance) ([]RawPrediction, error) {
	payload, err := json.Marshal(forecastRequest{
		Instances: instances,
		Configuration: forecastConfiguration{
			NumSamples:  f.numSamples,
			OutputTypes: []string{"mean", "quantiles"},
			Quantiles:   []string{"0.1", "0.5", "0.9"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal forecast request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpointURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, domain.ErrForecastTimeout
		}
		return nil, fmt.Errorf("forecast call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("forecast call: unexpected status %d: %s", resp.StatusCode, body)
	}

	var parsed forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &domain.ForecastParseError{Reason: "malformed response body: " + err.Error()}
	}
	if len(parsed.Predictions) != len(instances) {
		return nil, &domain.ForecastParseError{
			Reason: fmt.Sprintf("prediction count %d does not match instance count %d",
				len(parsed.Predictions), len(instances)),
		}
	}
	return parsed.Predictions, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
