// Package dto defines data transfer objects for the Twelve Data API responses.
package dto

// APIStatus is embedded in every response. Twelve Data reports failures with
// HTTP 200 and status "error", so the body has to be checked as well.
type APIStatus struct {
	Status  string `json:"status,omitempty"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// TimeSeriesResponse represents the JSON response from the Twelve Data time_series endpoint.
type TimeSeriesResponse struct {
	APIStatus
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
		Currency string `json:"currency"`
	} `json:"meta"`
	Values []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume"`
	} `json:"values"`
}
