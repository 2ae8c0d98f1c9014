package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"VolServe/internal/domain/models"
	drepo "VolServe/internal/domain/repository"
	"VolServe/internal/service/ratelimit"
	pkghttp "VolServe/pkg/http"
	"VolServe/pkg/logger"
)

const (
	DefaultBaseURL = "https://www.alphavantage.co/query"

	dateLayout = "2006-01-02"
)

type Config struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url" default:"https://www.alphavantage.co/query"`
	Timeout           time.Duration `yaml:"timeout" default:"30s"`
	RequestsPerMinute float64       `yaml:"requests_per_minute" default:"5"`
}

// Client implements drepo.PriceProvider over the TIME_SERIES_DAILY endpoint.
type Client struct {
	cfg     Config
	http    *pkghttp.Client
	limiter *ratelimit.Limiter
	log     *logger.Logger
}

func New(cfg Config, httpClient *pkghttp.Client, limiter *ratelimit.Limiter, log *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = pkghttp.NewClient(pkghttp.WithTimeout(cfg.Timeout))
	}
	if limiter == nil {
		limiter = ratelimit.New()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{cfg: cfg, http: httpClient, limiter: limiter, log: log}
}

func (c *Client) Name() string { return "alphavantage" }

// dailyBar mirrors one entry of the "Time Series (Daily)" object. Every
// value arrives as a string.
type dailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type dailyResponse struct {
	Series       map[string]dailyBar `json:"Time Series (Daily)"`
	ErrorMessage string              `json:"Error Message"`
	Information  string              `json:"Information"`
	Note         string              `json:"Note"`
}

// FetchDaily downloads daily bars for ticker. size is "compact" (last 100
// rows) or "full". A payload without the daily series, which is what the
// service sends for unknown symbols, maps to ErrDataUnavailable.
func (c *Client) FetchDaily(ctx context.Context, ticker, size string) ([]models.PriceRecord, error) {
	if size == "" {
		size = "full"
	}
	if c.cfg.RequestsPerMinute > 0 {
		if err := c.limiter.Wait(ctx, c.Name(), c.cfg.RequestsPerMinute, c.cfg.RequestsPerMinute/60); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	var payload dailyResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.cfg.BaseURL,
		QueryParams: map[string][]string{
			"function":   {"TIME_SERIES_DAILY"},
			"symbol":     {ticker},
			"outputsize": {size},
			"datatype":   {"json"},
			"apikey":     {c.cfg.APIKey},
		},
	}, &payload)
	if err != nil {
		var se *pkghttp.StatusError
		if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 {
			return nil, fmt.Errorf("%w: alphavantage %s: %v", models.ErrDataUnavailable, ticker, err)
		}
		return nil, fmt.Errorf("alphavantage %s: %w", ticker, err)
	}

	if payload.Series == nil {
		reason := "invalid symbol"
		switch {
		case payload.ErrorMessage != "":
			reason = "invalid symbol: " + payload.ErrorMessage
		case payload.Information != "":
			reason = payload.Information
		case payload.Note != "":
			reason = payload.Note
		}
		c.log.Warn("alphavantage returned no daily series",
			logger.String("ticker", ticker),
			logger.String("reason", reason),
		)
		return nil, fmt.Errorf("%w: %s: %s", models.ErrDataUnavailable, ticker, reason)
	}

	rows, err := parseSeries(payload.Series)
	if err != nil {
		return nil, fmt.Errorf("%w: alphavantage %s: %v", models.ErrDataUnavailable, ticker, err)
	}
	c.log.Debug("alphavantage daily fetched",
		logger.String("ticker", ticker),
		logger.String("size", size),
		logger.Int("rows", len(rows)),
	)
	return rows, nil
}

// parseSeries converts the date-keyed payload into rows ascending by date.
func parseSeries(series map[string]dailyBar) ([]models.PriceRecord, error) {
	rows := make([]models.PriceRecord, 0, len(series))
	for day, bar := range series {
		d, err := time.Parse(dateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", day, err)
		}
		rec := models.PriceRecord{Date: d}
		for _, f := range []struct {
			name string
			raw  string
			dst  *float64
		}{
			{"open", bar.Open, &rec.Open},
			{"high", bar.High, &rec.High},
			{"low", bar.Low, &rec.Low},
			{"close", bar.Close, &rec.Close},
			{"volume", bar.Volume, &rec.Volume},
		} {
			v, err := strconv.ParseFloat(f.raw, 64)
			if err != nil {
				return nil, fmt.Errorf("parse %s on %s: %w", f.name, day, err)
			}
			*f.dst = v
		}
		rows = append(rows, rec)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, nil
}

var _ drepo.PriceProvider = (*Client)(nil)
