package domain

// RequestFilter selects asset requests. Empty fields are ignored.
type RequestFilter struct {
	AssetID        string
	HREmail        string
	RequesterEmail string
	RequestStatus  string
}

// AffiliationFilter selects affiliations. Empty fields are ignored.
type AffiliationFilter struct {
	HREmail       string
	CompanyName   string
	EmployeeEmail string
}
