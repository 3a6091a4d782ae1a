// internal/models/customer.go
package models

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Department string `json:"department,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

func (a *Address) IsComplete() bool {
	return a != nil && a.Line1 != "" && a.City != ""
}

// BillingData is the invoicing identity captured on the billing step.
type BillingData struct {
	FullName       string `json:"fullName"`
	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	Address        string `json:"address,omitempty"`
}

func (b *BillingData) IsComplete() bool {
	return b != nil && b.FullName != "" && b.DocumentNumber != "" && b.Email != ""
}
