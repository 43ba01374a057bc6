package entity

// CompanyProfile is the descriptive record of the company behind a ticker.
// Fields the provider did not report are empty until the usecase fills them
// with a placeholder.
type CompanyProfile struct {
	Name        string
	Website     string
	Sector      string
	Description string
}
