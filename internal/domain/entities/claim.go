package entities

import (
	"github.com/shopspring/decimal"
)

// ClaimStatus is the processing state of a claim.
type ClaimStatus string

const (
	ClaimDraft     ClaimStatus = "draft"
	ClaimSubmitted ClaimStatus = "submitted"
	ClaimInReview  ClaimStatus = "in_review"
	ClaimApproved  ClaimStatus = "approved"
	ClaimRejected  ClaimStatus = "rejected"
	ClaimPaid      ClaimStatus = "paid"
)

// ClaimItem is one billed procedure line.
type ClaimItem struct {
	ProcedureCode string          `json:"procedure_code" validate:"required"`
	Quantity      int             `json:"quantity" validate:"min=1"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

// Claim is an invoice submitted by a provider for an insured person.
type Claim struct {
	ID                   string          `json:"id,omitempty"`
	ProviderID           string          `json:"provider_id" validate:"required"`
	InsuredID            string          `json:"insured_id" validate:"required"`
	DoctorID             string          `json:"doctor_id,omitempty"`
	ServiceDateFrom      string          `json:"service_date_from" validate:"required,datetime=2006-01-02"`
	ServiceDateTo        string          `json:"service_date_to" validate:"omitempty,datetime=2006-01-02"`
	InvoiceNumber        string          `json:"invoice_number" validate:"required"`
	InvoiceDate          string          `json:"invoice_date" validate:"omitempty,datetime=2006-01-02"`
	ClaimItems           []ClaimItem     `json:"claim_items" validate:"required,min=1,dive"`
	TotalSubmittedAmount decimal.Decimal `json:"total_submitted_amount"`
	Status               ClaimStatus     `json:"status" validate:"omitempty,oneof=draft submitted in_review approved rejected paid"`
}

func (c Claim) EntityID() string { return c.ID }

func (c Claim) DisplayName() string {
	if c.InvoiceNumber != "" {
		return c.InvoiceNumber
	}
	return c.ID
}

// ItemsTotal returns Σ quantity × unit_price over the claim items.
func (c Claim) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.ClaimItems {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// BeforeSubmit derives line totals and the submitted amount.
func (c *Claim) BeforeSubmit() {
	for i := range c.ClaimItems {
		item := &c.ClaimItems[i]
		item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	}
	c.TotalSubmittedAmount = c.ItemsTotal()
}

// CheckRules rejects negative prices and inverted service windows.
func (c Claim) CheckRules() map[string]string {
	problems := map[string]string{}
	for _, item := range c.ClaimItems {
		if item.UnitPrice.IsNegative() {
			problems["claim_items"] = "unit_price must be zero or greater"
			break
		}
	}
	if c.ServiceDateTo != "" && c.ServiceDateTo < c.ServiceDateFrom {
		problems["service_date_to"] = "must not be before service_date_from"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}
