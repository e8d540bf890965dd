package entities

// MedicalCodeStatus is the lifecycle state of a medical code.
type MedicalCodeStatus string

const (
	MedicalCodeActive     MedicalCodeStatus = "active"
	MedicalCodeDeprecated MedicalCodeStatus = "deprecated"
)

// MedicalCode is an entry of an external coding system (ICD, CPT, ...).
type MedicalCode struct {
	ID            string            `json:"id,omitempty"`
	Code          string            `json:"code" validate:"required"`
	CodeSystem    string            `json:"code_system" validate:"required"`
	DescriptionEn string            `json:"description_en" validate:"required_without=DescriptionHe"`
	DescriptionHe string            `json:"description_he" validate:"required_without=DescriptionEn"`
	Tags          []string          `json:"tags"`
	CatalogPath   string            `json:"catalog_path"`
	Status        MedicalCodeStatus `json:"status" validate:"omitempty,oneof=active deprecated"`
	UpdatedDate   string            `json:"updated_date,omitempty"`
}

func (m MedicalCode) EntityID() string { return m.ID }

func (m MedicalCode) DisplayName() string {
	return Localized(m.DescriptionEn, m.DescriptionHe, m.Code)
}

// InternalCode is an organisation-specific billing code.
type InternalCode struct {
	ID            string   `json:"id,omitempty"`
	CodeNumber    string   `json:"code_number" validate:"required"`
	DescriptionEn string   `json:"description_en" validate:"required_without=DescriptionHe"`
	DescriptionHe string   `json:"description_he" validate:"required_without=DescriptionEn"`
	CategoryPath  string   `json:"category_path"`
	Tags          []string `json:"tags"`
	IsBillable    bool     `json:"is_billable"`
	IsActive      bool     `json:"is_active"`
}

func (c InternalCode) EntityID() string { return c.ID }

func (c InternalCode) DisplayName() string {
	return Localized(c.DescriptionEn, c.DescriptionHe, c.CodeNumber)
}

// InsuranceCode is a code in the insurer's catalogue.
type InsuranceCode struct {
	ID                          string `json:"id,omitempty"`
	Code                        string `json:"code" validate:"required"`
	NameEn                      string `json:"name_en" validate:"required_without=NameHe"`
	NameHe                      string `json:"name_he" validate:"required_without=NameEn"`
	CategoryPath                string `json:"category_path"`
	RequiresPreauthorization    bool   `json:"requires_preauthorization"`
	IsActive                    bool   `json:"is_active"`
	StandardHospitalizationDays *int   `json:"standard_hospitalization_days,omitempty" validate:"omitempty,min=0"`
}

func (c InsuranceCode) EntityID() string { return c.ID }

func (c InsuranceCode) DisplayName() string {
	return Localized(c.NameEn, c.NameHe, c.Code)
}

// MappingType classifies a diagnosis to procedure mapping.
type MappingType string

const (
	MappingPrimary     MappingType = "primary"
	MappingSecondary   MappingType = "secondary"
	MappingConditional MappingType = "conditional"
)

// ValidityRule restricts when a mapping applies.
type ValidityRule struct {
	RuleType  string `json:"rule_type" validate:"required"`
	RuleValue string `json:"rule_value" validate:"required"`
}

// DiagnosisProcedureMapping links a diagnosis code to a procedure code.
type DiagnosisProcedureMapping struct {
	ID            string         `json:"id,omitempty"`
	DiagnosisCode string         `json:"diagnosis_code" validate:"required"`
	ProcedureCode string         `json:"procedure_code" validate:"required"`
	MappingType   MappingType    `json:"mapping_type" validate:"required,oneof=primary secondary conditional"`
	ValidityRules []ValidityRule `json:"validity_rules" validate:"dive"`
	Notes         string         `json:"notes"`
	IsActive      bool           `json:"is_active"`
}

func (m DiagnosisProcedureMapping) EntityID() string { return m.ID }

func (m DiagnosisProcedureMapping) DisplayName() string {
	return m.DiagnosisCode + " → " + m.ProcedureCode
}
