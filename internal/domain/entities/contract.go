package entities

// ContractStatus is the lifecycle state of a provider contract.
type ContractStatus string

const (
	ContractDraft      ContractStatus = "draft"
	ContractActive     ContractStatus = "active"
	ContractExpired    ContractStatus = "expired"
	ContractTerminated ContractStatus = "terminated"
)

// ScopeRule narrows which services a contract covers.
type ScopeRule struct {
	ScopeType  string `json:"scope_type" validate:"required"`
	ScopeValue string `json:"scope_value" validate:"required"`
	Notes      string `json:"notes,omitempty"`
}

// Contract is an agreement with a provider.
type Contract struct {
	ID             string         `json:"id,omitempty"`
	ContractNumber string         `json:"contract_number" validate:"required"`
	NameEn         string         `json:"name_en" validate:"required_without=NameHe"`
	NameHe         string         `json:"name_he" validate:"required_without=NameEn"`
	ProviderID     string         `json:"provider_id" validate:"required"`
	ValidFrom      string         `json:"valid_from" validate:"required,datetime=2006-01-02"`
	ValidTo        string         `json:"valid_to" validate:"omitempty,datetime=2006-01-02"`
	Status         ContractStatus `json:"status" validate:"omitempty,oneof=draft active expired terminated"`
	ScopeRules     []ScopeRule    `json:"scope_rules" validate:"dive"`
	PaymentTerms   map[string]any `json:"payment_terms,omitempty"`
}

func (c Contract) EntityID() string { return c.ID }

func (c Contract) DisplayName() string {
	return Localized(c.NameEn, c.NameHe, c.ContractNumber)
}

// CheckRules verifies the validity window is ordered.
func (c Contract) CheckRules() map[string]string {
	if c.ValidTo != "" && c.ValidFrom != "" && c.ValidTo < c.ValidFrom {
		return map[string]string{"valid_to": "must not be before valid_from"}
	}
	return nil
}
