package dto

// QuoteResponse represents the JSON response from the Twelve Data quote endpoint.
// Only the fields used for the latest price are declared.
type QuoteResponse struct {
	APIStatus
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Datetime      string `json:"datetime"`
	Close         string `json:"close"`
	PreviousClose string `json:"previous_close"`
}
