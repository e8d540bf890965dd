package entities

// QuantityType says how the material quantity of a BOM line is expressed.
type QuantityType string

const (
	QuantityFixed   QuantityType = "fixed"
	QuantityRange   QuantityType = "range"
	QuantityAverage QuantityType = "average"
)

// UsageType says how often a material is consumed by the procedure.
type UsageType string

const (
	UsageRequired    UsageType = "required"
	UsageOptional    UsageType = "optional"
	UsageRare        UsageType = "rare"
	UsageConditional UsageType = "conditional"
)

// BillOfMaterial lists a material consumed by an insurance code's procedure.
type BillOfMaterial struct {
	ID               string       `json:"id,omitempty"`
	InsuranceCodeID  string       `json:"insurance_code_id" validate:"required"`
	MaterialID       string       `json:"material_id" validate:"required"`
	VariantLabel     string       `json:"variant_label,omitempty"`
	VariantCode      string       `json:"variant_code,omitempty"`
	QuantityType     QuantityType `json:"quantity_type" validate:"required,oneof=fixed range average"`
	QuantityFixed    *float64     `json:"quantity_fixed,omitempty" validate:"omitempty,min=0"`
	QuantityMin      *float64     `json:"quantity_min,omitempty" validate:"omitempty,min=0"`
	QuantityMax      *float64     `json:"quantity_max,omitempty" validate:"omitempty,min=0"`
	QuantityAvg      *float64     `json:"quantity_avg,omitempty" validate:"omitempty,min=0"`
	UsageType        UsageType    `json:"usage_type" validate:"required,oneof=required optional rare conditional"`
	ReimbursableFlag bool         `json:"reimbursable_flag"`
}

func (b BillOfMaterial) EntityID() string { return b.ID }

func (b BillOfMaterial) DisplayName() string {
	if b.VariantLabel != "" {
		return b.MaterialID + " (" + b.VariantLabel + ")"
	}
	return b.MaterialID
}

// CheckRules requires the quantity fields matching QuantityType.
func (b BillOfMaterial) CheckRules() map[string]string {
	switch b.QuantityType {
	case QuantityFixed:
		if b.QuantityFixed == nil {
			return map[string]string{"quantity_fixed": "is required for fixed quantities"}
		}
	case QuantityRange:
		problems := map[string]string{}
		if b.QuantityMin == nil {
			problems["quantity_min"] = "is required for range quantities"
		}
		if b.QuantityMax == nil {
			problems["quantity_max"] = "is required for range quantities"
		}
		if b.QuantityMin != nil && b.QuantityMax != nil && *b.QuantityMax < *b.QuantityMin {
			problems["quantity_max"] = "must be at least quantity_min"
		}
		if len(problems) > 0 {
			return problems
		}
	case QuantityAverage:
		if b.QuantityAvg == nil {
			return map[string]string{"quantity_avg": "is required for average quantities"}
		}
	}
	return nil
}
