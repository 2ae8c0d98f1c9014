package models

// Requests and responses for the volatility HTTP endpoints. Every workflow
// field is required; P and Q are pointers so an omitted order is told apart
// from an explicit 0.

type TrainRequest struct {
	Ticker      string `json:"ticker" validate:"required,max=16"`
	RefreshData bool   `json:"refresh_data"`
	NPoints     int    `json:"n_points" validate:"required,gte=1,lte=20000"`
	P           *int   `json:"p" validate:"required,gte=0,lte=10"`
	Q           *int   `json:"q" validate:"required,gte=0,lte=10"`
}

type TrainResponse struct {
	TrainRequest
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Filename string `json:"filename,omitempty"`
}

type ForecastRequest struct {
	Ticker string `json:"ticker" validate:"required,max=16"`
	Days   int    `json:"days" validate:"required,gte=1,lte=365"`
}

type ForecastResponse struct {
	ForecastRequest
	Success  bool     `json:"success"`
	Forecast Forecast `json:"forecast"`
	Message  string   `json:"message"`
}
