package model

// User is a canonical salesperson from the users registry. Code is the
// login username (e.g. "PS100") and doubles as the structured rep code.
type User struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Customer is a canonical customer record. Phone may be blank.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// Product is a canonical product record.
type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Clinic is a canonical clinic record. CityCode is the registry's raw city
// value and may hold the UI picker placeholder instead of a real city.
type Clinic struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	CityCode string `json:"city_code,omitempty"`
}
