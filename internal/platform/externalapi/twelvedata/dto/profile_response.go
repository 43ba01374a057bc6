package dto

// ProfileResponse represents the JSON response from the Twelve Data profile endpoint.
type ProfileResponse struct {
	APIStatus
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
	Website     string `json:"website"`
	Description string `json:"description"`
}
