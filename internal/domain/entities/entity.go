package entities

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// The entity API exchanges amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Entity type names as addressed by the entity API.
const (
	TypeMedicalCode               = "MedicalCode"
	TypeInternalCode              = "InternalCode"
	TypeInsuranceCode             = "InsuranceCode"
	TypeDiagnosisProcedureMapping = "DiagnosisProcedureMapping"
	TypeContract                  = "Contract"
	TypeClaim                     = "Claim"
	TypeDoctor                    = "Doctor"
	TypeProvider                  = "Provider"
	TypeBillOfMaterial            = "BillOfMaterial"
	TypeDoctorProviderAffiliation = "DoctorProviderAffiliation"
	TypeAddress                   = "Address"
)

// Entity is a record owned by the external entity service.
type Entity interface {
	EntityID() string
	DisplayName() string
}

// Preparer is implemented by entities that derive fields right before submission.
type Preparer interface {
	BeforeSubmit()
}

// RuleChecker is implemented by entities with cross-field rules that struct tags cannot express.
// It returns field name (json) to message.
type RuleChecker interface {
	CheckRules() map[string]string
}

// Status values shared by several entities.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Localized picks the English value, then the Hebrew one, then the fallback.
func Localized(en, he, fallback string) string {
	if s := strings.TrimSpace(en); s != "" {
		return s
	}
	if s := strings.TrimSpace(he); s != "" {
		return s
	}
	return fallback
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
