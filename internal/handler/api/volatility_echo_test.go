package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"VolServe/internal/domain/models"
	"VolServe/internal/usecase"

	"github.com/labstack/echo/v4"
)

type fakeService struct {
	trainIn    []usecase.TrainParams
	forecastIn []usecase.ForecastParams
	train      usecase.TrainResult
	forecast   usecase.ForecastResult
}

func (f *fakeService) Train(_ context.Context, in usecase.TrainParams) usecase.TrainResult {
	f.trainIn = append(f.trainIn, in)
	return f.train
}

func (f *fakeService) Forecast(_ context.Context, in usecase.ForecastParams) usecase.ForecastResult {
	f.forecastIn = append(f.forecastIn, in)
	return f.forecast
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, svc *fakeService, method, path, body string) (int, envelope, string) {
	t.Helper()
	e := echo.New()
	NewVolatilityEchoHandler(nil, svc).RegisterRoutes(e)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec.Code, env, rec.Body.String()
}

func TestPing(t *testing.T) {
	code, _, body := serve(t, &fakeService{}, http.MethodGet, "/ping", "")
	if code != http.StatusOK || strings.TrimSpace(body) != `{"status":"ok"}` {
		t.Fatalf("code=%d body=%s", code, body)
	}
}

func TestTrainEchoesRequest(t *testing.T) {
	svc := &fakeService{train: usecase.TrainResult{
		Success:  true,
		Message:  "Model saved as 2024-01-05T00:00:00.000000_BBB.json.",
		Filename: "2024-01-05T00:00:00.000000_BBB.json",
	}}
	code, env, _ := serve(t, svc, http.MethodPost, "/train",
		`{"ticker":"BBB","refresh_data":false,"n_points":30,"p":1,"q":1}`)
	if code != http.StatusOK || env.Status != http.StatusOK {
		t.Fatalf("code=%d env=%+v", code, env)
	}

	var got models.TrainResponse
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Ticker != "BBB" || got.NPoints != 30 || got.P == nil || *got.P != 1 || got.Q == nil || *got.Q != 1 {
		t.Fatalf("request not echoed: %+v", got)
	}
	if !got.Success || got.Filename != svc.train.Filename || got.Message != svc.train.Message {
		t.Fatalf("unexpected result: %+v", got)
	}
	want := usecase.TrainParams{Ticker: "BBB", NPoints: 30, P: 1, Q: 1}
	if len(svc.trainIn) != 1 || svc.trainIn[0] != want {
		t.Fatalf("service got %+v", svc.trainIn)
	}
}

func TestTrainFailureIsStill200(t *testing.T) {
	svc := &fakeService{train: usecase.TrainResult{Message: "train AAA: prepare data: data unavailable"}}
	code, env, _ := serve(t, svc, http.MethodPost, "/train", `{"ticker":"AAA","n_points":10,"p":1,"q":1}`)
	if code != http.StatusOK {
		t.Fatalf("code=%d", code)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got["success"] != false || got["message"] != svc.train.Message {
		t.Fatalf("unexpected body: %v", got)
	}
	if _, ok := got["filename"]; ok {
		t.Fatalf("filename should be omitted on failure: %v", got)
	}
}

func TestTrainAcceptsExplicitZeroOrder(t *testing.T) {
	svc := &fakeService{}
	code, _, _ := serve(t, svc, http.MethodPost, "/train", `{"ticker":"BBB","n_points":50,"p":1,"q":0}`)
	if code != http.StatusOK {
		t.Fatalf("code=%d", code)
	}
	want := usecase.TrainParams{Ticker: "BBB", NPoints: 50, P: 1, Q: 0}
	if len(svc.trainIn) != 1 || svc.trainIn[0] != want {
		t.Fatalf("service got %+v", svc.trainIn)
	}
}

func TestTrainValidation(t *testing.T) {
	cases := map[string]string{
		"missing ticker": `{"n_points":10,"p":1,"q":1}`,
		"missing p":      `{"ticker":"BBB","n_points":10,"q":1}`,
		"missing q":      `{"ticker":"BBB","n_points":10,"p":1}`,
		"missing points": `{"ticker":"BBB","p":1,"q":1}`,
		"zero points":    `{"ticker":"BBB","n_points":0,"p":1,"q":1}`,
		"p too large":    `{"ticker":"BBB","n_points":10,"p":11,"q":1}`,
		"negative q":     `{"ticker":"BBB","n_points":10,"p":1,"q":-1}`,
		"bad json":       `{"ticker":`,
		"wrong type":     `{"ticker":"BBB","p":"one"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &fakeService{}
			code, env, _ := serve(t, svc, http.MethodPost, "/train", body)
			if code != http.StatusBadRequest || env.Status != http.StatusBadRequest {
				t.Fatalf("code=%d env=%+v", code, env)
			}
			if len(svc.trainIn) != 0 {
				t.Fatal("service must not be called")
			}
		})
	}
}

func TestForecastEchoesRequest(t *testing.T) {
	svc := &fakeService{forecast: usecase.ForecastResult{
		Success: true,
		Forecast: models.Forecast{
			{Timestamp: "2024-01-08T00:00:00", Volatility: 1.5},
			{Timestamp: "2024-01-09T00:00:00", Volatility: 1.25},
		},
	}}
	code, env, _ := serve(t, svc, http.MethodPost, "/forecast", `{"ticker":"BBB","days":2}`)
	if code != http.StatusOK {
		t.Fatalf("code=%d", code)
	}
	want := `{"ticker":"BBB","days":2,"success":true,"forecast":{"2024-01-08T00:00:00":1.5,"2024-01-09T00:00:00":1.25},"message":""}`
	if string(env.Data) != want {
		t.Fatalf("got  %s\nwant %s", env.Data, want)
	}
}

func TestForecastFailureReturnsEmptyObject(t *testing.T) {
	svc := &fakeService{forecast: usecase.ForecastResult{
		Forecast: models.Forecast{},
		Message:  "forecast ZZZ: load model: no saved model found for ZZZ",
	}}
	code, env, _ := serve(t, svc, http.MethodPost, "/forecast", `{"ticker":"ZZZ","days":3}`)
	if code != http.StatusOK {
		t.Fatalf("code=%d", code)
	}
	if len(svc.forecastIn) != 1 || svc.forecastIn[0].Days != 3 {
		t.Fatalf("service got %+v", svc.forecastIn)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got["success"] != false {
		t.Fatalf("unexpected body: %v", got)
	}
	if fc, ok := got["forecast"].(map[string]interface{}); !ok || len(fc) != 0 {
		t.Fatalf("forecast should be {}: %v", got["forecast"])
	}
}

func TestForecastValidation(t *testing.T) {
	cases := map[string]string{
		"long horizon": `{"ticker":"BBB","days":366}`,
		"zero days":    `{"ticker":"BBB","days":0}`,
		"missing days": `{"ticker":"BBB"}`,
		"negative":     `{"ticker":"BBB","days":-2}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &fakeService{}
			code, _, _ := serve(t, svc, http.MethodPost, "/forecast", body)
			if code != http.StatusBadRequest || len(svc.forecastIn) != 0 {
				t.Fatalf("code=%d calls=%d", code, len(svc.forecastIn))
			}
		})
	}
}
