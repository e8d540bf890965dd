package entities

// Address is the structured address referenced by doctors and providers.
type Address struct {
	ID         string `json:"id,omitempty"`
	Street     string `json:"street"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

func (a Address) EntityID() string { return a.ID }

func (a Address) DisplayName() string {
	if a.Street == "" {
		return a.City
	}
	return a.Street + ", " + a.City
}

// Doctor is a practitioner. City and Address are the legacy free-text location
// fields, superseded by AddressID once the address migration has run.
type Doctor struct {
	ID            string `json:"id,omitempty"`
	FirstNameEn   string `json:"first_name_en" validate:"required_without=FirstNameHe"`
	LastNameEn    string `json:"last_name_en" validate:"required_with=FirstNameEn"`
	FirstNameHe   string `json:"first_name_he" validate:"required_without=FirstNameEn"`
	LastNameHe    string `json:"last_name_he" validate:"required_with=FirstNameHe"`
	LicenseNumber string `json:"license_number" validate:"required"`
	Specialty     string `json:"specialty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	AddressID     string `json:"address_id,omitempty"`
	City          string `json:"city,omitempty"`
	Address       string `json:"address,omitempty"`
	Status        string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (d Doctor) EntityID() string { return d.ID }

func (d Doctor) DisplayName() string {
	return Localized(joinName(d.FirstNameEn, d.LastNameEn), joinName(d.FirstNameHe, d.LastNameHe), d.LicenseNumber)
}

// HasLegacyAddress reports whether free-text location fields are still populated.
func (d Doctor) HasLegacyAddress() bool {
	return d.City != "" || d.Address != ""
}

// Provider is a facility or organisation delivering care.
type Provider struct {
	ID           string `json:"id,omitempty"`
	NameEn       string `json:"name_en" validate:"required_without=NameHe"`
	NameHe       string `json:"name_he" validate:"required_without=NameEn"`
	ProviderCode string `json:"provider_code"`
	ProviderType string `json:"provider_type" validate:"omitempty,oneof=hospital clinic imaging lab pharmacy other"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	AddressID    string `json:"address_id,omitempty"`
	City         string `json:"city,omitempty"`
	Address      string `json:"address,omitempty"`
	Status       string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (p Provider) EntityID() string { return p.ID }

func (p Provider) DisplayName() string {
	return Localized(p.NameEn, p.NameHe, p.ProviderCode)
}

// HasLegacyAddress reports whether free-text location fields are still populated.
func (p Provider) HasLegacyAddress() bool {
	return p.City != "" || p.Address != ""
}

// AffiliationStatus is the state of a doctor's affiliation with a provider.
type AffiliationStatus string

const (
	AffiliationActive          AffiliationStatus = "active"
	AffiliationInactive        AffiliationStatus = "inactive"
	AffiliationPendingApproval AffiliationStatus = "pending_approval"
)

// DoctorProviderAffiliation says a doctor practices at a provider.
type DoctorProviderAffiliation struct {
	ID                string            `json:"id,omitempty"`
	DoctorID          string            `json:"doctor_id" validate:"required"`
	ProviderID        string            `json:"provider_id" validate:"required"`
	AffiliationStatus AffiliationStatus `json:"affiliation_status" validate:"required,oneof=active inactive pending_approval"`
	StartDate         string            `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate           string            `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsPrimaryLocation bool              `json:"is_primary_location"`
	SpecialNotes      string            `json:"special_notes"`
}

func (a DoctorProviderAffiliation) EntityID() string { return a.ID }

func (a DoctorProviderAffiliation) DisplayName() string {
	return a.DoctorID + " @ " + a.ProviderID
}

// CheckRules verifies the affiliation window is ordered.
func (a DoctorProviderAffiliation) CheckRules() map[string]string {
	if a.EndDate != "" && a.EndDate < a.StartDate {
		return map[string]string{"end_date": "must not be before start_date"}
	}
	return nil
}
