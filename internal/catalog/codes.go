package catalog

import (
	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/export"
	"github.com/zatekoja/medbackoffice/internal/listing"
)

// MedicalCodes configures the medical code screen.
func MedicalCodes() Definition[entities.MedicalCode] {
	return Definition[entities.MedicalCode]{
		Info: mustInfo(entities.TypeMedicalCode),
		Listing: listing.Config[entities.MedicalCode]{
			EntityType:     entities.TypeMedicalCode,
			InitialFilters: listing.Filters{"search": "", "codeSystem": listing.All, "status": listing.All, "tag": ""},
			Predicate: func(m entities.MedicalCode, f listing.Filters) bool {
				return listing.MatchText(f, "search", m.Code, m.DescriptionEn, m.DescriptionHe, m.CatalogPath) &&
					listing.MatchEnum(f, "codeSystem", m.CodeSystem) &&
					listing.MatchEnum(f, "status", string(m.Status)) &&
					listing.MatchTag(f, "tag", m.Tags)
			},
			SortFields: map[string]listing.SortKey[entities.MedicalCode]{
				"code":         func(m entities.MedicalCode) any { return m.Code },
				"code_system":  func(m entities.MedicalCode) any { return m.CodeSystem },
				"description":  func(m entities.MedicalCode) any { return nilIfEmpty(m.DisplayName()) },
				"status":       func(m entities.MedicalCode) any { return string(m.Status) },
				"updated_date": func(m entities.MedicalCode) any { return nilIfEmpty(m.UpdatedDate) },
			},
			DefaultSort: listing.SortState{Key: "code", Direction: listing.Ascending},
			ListSort:    "-updated_date",
		},
		Columns: []export.Column[entities.MedicalCode]{
			{Header: "Code", Width: 14, Value: func(m entities.MedicalCode) any { return m.Code }},
			{Header: "Code system", Width: 14, Value: func(m entities.MedicalCode) any { return m.CodeSystem }},
			{Header: "Description (EN)", Width: 40, Value: func(m entities.MedicalCode) any { return m.DescriptionEn }},
			{Header: "Description (HE)", Width: 40, Value: func(m entities.MedicalCode) any { return m.DescriptionHe }},
			{Header: "Catalog path", Width: 30, Value: func(m entities.MedicalCode) any { return m.CatalogPath }},
			{Header: "Tags", Width: 20, Value: func(m entities.MedicalCode) any { return m.Tags }},
			{Header: "Status", Value: func(m entities.MedicalCode) any { return string(m.Status) }},
			{Header: "Updated", Width: 12, Value: func(m entities.MedicalCode) any { return m.UpdatedDate }},
		},
		Defaults: func() entities.MedicalCode {
			return entities.MedicalCode{Status: entities.MedicalCodeActive, Tags: []string{}}
		},
	}
}

// InternalCodes configures the internal code screen.
func InternalCodes() Definition[entities.InternalCode] {
	return Definition[entities.InternalCode]{
		Info: mustInfo(entities.TypeInternalCode),
		Listing: listing.Config[entities.InternalCode]{
			EntityType:     entities.TypeInternalCode,
			InitialFilters: listing.Filters{"search": "", "category": "", "isActive": listing.All, "isBillable": listing.All},
			Predicate: func(c entities.InternalCode, f listing.Filters) bool {
				return listing.MatchText(f, "search", c.CodeNumber, c.DescriptionEn, c.DescriptionHe) &&
					listing.MatchText(f, "category", c.CategoryPath) &&
					listing.MatchBool(f, "isActive", c.IsActive) &&
					listing.MatchBool(f, "isBillable", c.IsBillable)
			},
			SortFields: map[string]listing.SortKey[entities.InternalCode]{
				"code_number":   func(c entities.InternalCode) any { return c.CodeNumber },
				"description":   func(c entities.InternalCode) any { return nilIfEmpty(c.DisplayName()) },
				"category_path": func(c entities.InternalCode) any { return nilIfEmpty(c.CategoryPath) },
				"is_active":     func(c entities.InternalCode) any { return c.IsActive },
				"is_billable":   func(c entities.InternalCode) any { return c.IsBillable },
			},
			DefaultSort: listing.SortState{Key: "code_number", Direction: listing.Ascending},
		},
		Columns: []export.Column[entities.InternalCode]{
			{Header: "Code", Width: 14, Value: func(c entities.InternalCode) any { return c.CodeNumber }},
			{Header: "Description (EN)", Width: 40, Value: func(c entities.InternalCode) any { return c.DescriptionEn }},
			{Header: "Description (HE)", Width: 40, Value: func(c entities.InternalCode) any { return c.DescriptionHe }},
			{Header: "Category", Width: 30, Value: func(c entities.InternalCode) any { return c.CategoryPath }},
			{Header: "Tags", Width: 20, Value: func(c entities.InternalCode) any { return c.Tags }},
			{Header: "Billable", Value: func(c entities.InternalCode) any { return c.IsBillable }},
			{Header: "Active", Value: func(c entities.InternalCode) any { return c.IsActive }},
		},
		Defaults: func() entities.InternalCode {
			return entities.InternalCode{IsActive: true, IsBillable: true, Tags: []string{}}
		},
	}
}

// InsuranceCodes configures the insurance code screen.
func InsuranceCodes() Definition[entities.InsuranceCode] {
	return Definition[entities.InsuranceCode]{
		Info: mustInfo(entities.TypeInsuranceCode),
		Listing: listing.Config[entities.InsuranceCode]{
			EntityType: entities.TypeInsuranceCode,
			InitialFilters: listing.Filters{
				"search": "", "category": "", "isActive": listing.All, "requiresPreauthorization": listing.All,
				"minDays": "", "maxDays": "",
			},
			Predicate: func(c entities.InsuranceCode, f listing.Filters) bool {
				return listing.MatchText(f, "search", c.Code, c.NameEn, c.NameHe) &&
					listing.MatchText(f, "category", c.CategoryPath) &&
					listing.MatchBool(f, "isActive", c.IsActive) &&
					listing.MatchBool(f, "requiresPreauthorization", c.RequiresPreauthorization) &&
					listing.MatchRange(f, "minDays", "maxDays", intPtr(c.StandardHospitalizationDays))
			},
			SortFields: map[string]listing.SortKey[entities.InsuranceCode]{
				"code":                          func(c entities.InsuranceCode) any { return c.Code },
				"name":                          func(c entities.InsuranceCode) any { return nilIfEmpty(c.DisplayName()) },
				"category_path":                 func(c entities.InsuranceCode) any { return nilIfEmpty(c.CategoryPath) },
				"standard_hospitalization_days": func(c entities.InsuranceCode) any { return c.StandardHospitalizationDays },
				"is_active":                     func(c entities.InsuranceCode) any { return c.IsActive },
			},
			DefaultSort: listing.SortState{Key: "code", Direction: listing.Ascending},
		},
		Columns: []export.Column[entities.InsuranceCode]{
			{Header: "Code", Width: 14, Value: func(c entities.InsuranceCode) any { return c.Code }},
			{Header: "Name (EN)", Width: 36, Value: func(c entities.InsuranceCode) any { return c.NameEn }},
			{Header: "Name (HE)", Width: 36, Value: func(c entities.InsuranceCode) any { return c.NameHe }},
			{Header: "Category", Width: 30, Value: func(c entities.InsuranceCode) any { return c.CategoryPath }},
			{Header: "Pre-authorization", Value: func(c entities.InsuranceCode) any { return c.RequiresPreauthorization }},
			{Header: "Hospitalization days", Value: func(c entities.InsuranceCode) any { return c.StandardHospitalizationDays }},
			{Header: "Active", Value: func(c entities.InsuranceCode) any { return c.IsActive }},
		},
		Defaults: func() entities.InsuranceCode {
			return entities.InsuranceCode{IsActive: true}
		},
	}
}

// DiagnosisProcedureMappings configures the diagnosis to procedure mapping screen.
func DiagnosisProcedureMappings() Definition[entities.DiagnosisProcedureMapping] {
	type mapping = entities.DiagnosisProcedureMapping
	return Definition[mapping]{
		Info: mustInfo(entities.TypeDiagnosisProcedureMapping),
		Listing: listing.Config[mapping]{
			EntityType:     entities.TypeDiagnosisProcedureMapping,
			InitialFilters: listing.Filters{"search": "", "mappingType": listing.All, "isActive": listing.All},
			Predicate: func(m mapping, f listing.Filters) bool {
				return listing.MatchText(f, "search", m.DiagnosisCode, m.ProcedureCode, m.Notes) &&
					listing.MatchEnum(f, "mappingType", string(m.MappingType)) &&
					listing.MatchBool(f, "isActive", m.IsActive)
			},
			SortFields: map[string]listing.SortKey[mapping]{
				"diagnosis_code": func(m mapping) any { return m.DiagnosisCode },
				"procedure_code": func(m mapping) any { return m.ProcedureCode },
				"mapping_type":   func(m mapping) any { return string(m.MappingType) },
				"is_active":      func(m mapping) any { return m.IsActive },
			},
			DefaultSort: listing.SortState{Key: "diagnosis_code", Direction: listing.Ascending},
		},
		Columns: []export.Column[mapping]{
			{Header: "Diagnosis", Width: 14, Value: func(m mapping) any { return m.DiagnosisCode }},
			{Header: "Procedure", Width: 14, Value: func(m mapping) any { return m.ProcedureCode }},
			{Header: "Type", Width: 12, Value: func(m mapping) any { return string(m.MappingType) }},
			{Header: "Validity rules", Value: func(m mapping) any { return len(m.ValidityRules) }},
			{Header: "Notes", Width: 40, Value: func(m mapping) any { return m.Notes }},
			{Header: "Active", Value: func(m mapping) any { return m.IsActive }},
		},
		Defaults: func() mapping {
			return mapping{MappingType: entities.MappingPrimary, IsActive: true, ValidityRules: []entities.ValidityRule{}}
		},
	}
}
