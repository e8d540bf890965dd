package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/export"
	"github.com/zatekoja/medbackoffice/internal/listing"
)

// Contracts configures the contract screen. "activeOn" keeps contracts whose
// validity window contains the given date.
func Contracts() Definition[entities.Contract] {
	return Definition[entities.Contract]{
		Info: mustInfo(entities.TypeContract),
		Listing: listing.Config[entities.Contract]{
			EntityType:     entities.TypeContract,
			InitialFilters: listing.Filters{"search": "", "status": listing.All, "providerId": listing.All, "activeOn": ""},
			Predicate: func(c entities.Contract, f listing.Filters) bool {
				if day, ok := f.Active("activeOn"); ok && !activeOn(day, c.ValidFrom, c.ValidTo) {
					return false
				}
				return listing.MatchText(f, "search", c.ContractNumber, c.NameEn, c.NameHe) &&
					listing.MatchEnum(f, "status", string(c.Status)) &&
					listing.MatchEnum(f, "providerId", c.ProviderID)
			},
			SortFields: map[string]listing.SortKey[entities.Contract]{
				"contract_number": func(c entities.Contract) any { return c.ContractNumber },
				"name":            func(c entities.Contract) any { return nilIfEmpty(c.DisplayName()) },
				"valid_from":      func(c entities.Contract) any { return nilIfEmpty(c.ValidFrom) },
				"valid_to":        func(c entities.Contract) any { return nilIfEmpty(c.ValidTo) },
				"status":          func(c entities.Contract) any { return string(c.Status) },
			},
			DefaultSort: listing.SortState{Key: "valid_from", Direction: listing.Descending},
		},
		Columns: []export.Column[entities.Contract]{
			{Header: "Contract", Width: 16, Value: func(c entities.Contract) any { return c.ContractNumber }},
			{Header: "Name (EN)", Width: 32, Value: func(c entities.Contract) any { return c.NameEn }},
			{Header: "Name (HE)", Width: 32, Value: func(c entities.Contract) any { return c.NameHe }},
			{Header: "Provider", Width: 20, Value: func(c entities.Contract) any { return c.ProviderID }},
			{Header: "Valid from", Width: 12, Value: func(c entities.Contract) any { return c.ValidFrom }},
			{Header: "Valid to", Width: 12, Value: func(c entities.Contract) any { return c.ValidTo }},
			{Header: "Status", Value: func(c entities.Contract) any { return string(c.Status) }},
			{Header: "Scope rules", Value: func(c entities.Contract) any { return len(c.ScopeRules) }},
		},
		Defaults: func() entities.Contract {
			return entities.Contract{Status: entities.ContractDraft, ScopeRules: []entities.ScopeRule{}}
		},
	}
}

// Claims configures the claim screen.
func Claims() Definition[entities.Claim] {
	return Definition[entities.Claim]{
		Info: mustInfo(entities.TypeClaim),
		Listing: listing.Config[entities.Claim]{
			EntityType: entities.TypeClaim,
			InitialFilters: listing.Filters{
				"search": "", "status": listing.All, "providerId": listing.All, "doctorId": listing.All,
				"serviceFrom": "", "serviceTo": "", "minAmount": "", "maxAmount": "",
			},
			Predicate: func(c entities.Claim, f listing.Filters) bool {
				return listing.MatchText(f, "search", c.InvoiceNumber, c.InsuredID) &&
					listing.MatchEnum(f, "status", string(c.Status)) &&
					listing.MatchEnum(f, "providerId", c.ProviderID) &&
					listing.MatchEnum(f, "doctorId", c.DoctorID) &&
					listing.MatchDateRange(f, "serviceFrom", "serviceTo", c.ServiceDateFrom) &&
					listing.MatchRange(f, "minAmount", "maxAmount", decimalPtr(c.TotalSubmittedAmount))
			},
			SortFields: map[string]listing.SortKey[entities.Claim]{
				"invoice_number":         func(c entities.Claim) any { return c.InvoiceNumber },
				"service_date_from":      func(c entities.Claim) any { return nilIfEmpty(c.ServiceDateFrom) },
				"invoice_date":           func(c entities.Claim) any { return nilIfEmpty(c.InvoiceDate) },
				"total_submitted_amount": func(c entities.Claim) any { return c.TotalSubmittedAmount },
				"status":                 func(c entities.Claim) any { return string(c.Status) },
			},
			DefaultSort: listing.SortState{Key: "service_date_from", Direction: listing.Descending},
			ListSort:    "-service_date_from",
		},
		Columns: []export.Column[entities.Claim]{
			{Header: "Invoice", Width: 16, Value: func(c entities.Claim) any { return c.InvoiceNumber }},
			{Header: "Invoice date", Width: 12, Value: func(c entities.Claim) any { return c.InvoiceDate }},
			{Header: "Provider", Width: 20, Value: func(c entities.Claim) any { return c.ProviderID }},
			{Header: "Doctor", Width: 20, Value: func(c entities.Claim) any { return c.DoctorID }},
			{Header: "Insured", Width: 16, Value: func(c entities.Claim) any { return c.InsuredID }},
			{Header: "Service from", Width: 12, Value: func(c entities.Claim) any { return c.ServiceDateFrom }},
			{Header: "Service to", Width: 12, Value: func(c entities.Claim) any { return c.ServiceDateTo }},
			{Header: "Items", Value: func(c entities.Claim) any { return len(c.ClaimItems) }},
			{Header: "Total", Width: 12, Value: func(c entities.Claim) any { return c.TotalSubmittedAmount }},
			{Header: "Status", Value: func(c entities.Claim) any { return string(c.Status) }},
		},
		Defaults: func() entities.Claim {
			return entities.Claim{
				Status:               entities.ClaimDraft,
				ClaimItems:           []entities.ClaimItem{{Quantity: 1}},
				TotalSubmittedAmount: decimal.Zero,
			}
		},
	}
}

// BillsOfMaterial configures the bill of material screen. Deletes go out as one batch call.
func BillsOfMaterial() Definition[entities.BillOfMaterial] {
	type bom = entities.BillOfMaterial
	return Definition[bom]{
		Info: mustInfo(entities.TypeBillOfMaterial),
		Listing: listing.Config[bom]{
			EntityType: entities.TypeBillOfMaterial,
			InitialFilters: listing.Filters{
				"search": "", "insuranceCodeId": listing.All, "quantityType": listing.All,
				"usageType": listing.All, "reimbursable": listing.All,
			},
			Predicate: func(b bom, f listing.Filters) bool {
				return listing.MatchText(f, "search", b.MaterialID, b.VariantLabel, b.VariantCode) &&
					listing.MatchEnum(f, "insuranceCodeId", b.InsuranceCodeID) &&
					listing.MatchEnum(f, "quantityType", string(b.QuantityType)) &&
					listing.MatchEnum(f, "usageType", string(b.UsageType)) &&
					listing.MatchBool(f, "reimbursable", b.ReimbursableFlag)
			},
			SortFields: map[string]listing.SortKey[bom]{
				"material_id":   func(b bom) any { return b.MaterialID },
				"variant_label": func(b bom) any { return nilIfEmpty(b.VariantLabel) },
				"quantity_type": func(b bom) any { return string(b.QuantityType) },
				"usage_type":    func(b bom) any { return string(b.UsageType) },
				"quantity":      func(b bom) any { return nominalQuantity(b) },
			},
			DefaultSort: listing.SortState{Key: "material_id", Direction: listing.Ascending},
			BatchDelete: true,
		},
		Columns: []export.Column[bom]{
			{Header: "Insurance code", Width: 16, Value: func(b bom) any { return b.InsuranceCodeID }},
			{Header: "Material", Width: 16, Value: func(b bom) any { return b.MaterialID }},
			{Header: "Variant", Width: 20, Value: func(b bom) any { return b.VariantLabel }},
			{Header: "Variant code", Width: 14, Value: func(b bom) any { return b.VariantCode }},
			{Header: "Quantity type", Value: func(b bom) any { return string(b.QuantityType) }},
			{Header: "Quantity", Value: func(b bom) any { return nominalQuantity(b) }},
			{Header: "Min", Value: func(b bom) any { return b.QuantityMin }},
			{Header: "Max", Value: func(b bom) any { return b.QuantityMax }},
			{Header: "Usage", Value: func(b bom) any { return string(b.UsageType) }},
			{Header: "Reimbursable", Value: func(b bom) any { return b.ReimbursableFlag }},
		},
		Defaults: func() bom {
			return bom{QuantityType: entities.QuantityFixed, UsageType: entities.UsageRequired, ReimbursableFlag: true}
		},
	}
}

// nominalQuantity is the single number a BOM line is ordered by: the fixed
// quantity, the average, or the lower end of a range.
func nominalQuantity(b entities.BillOfMaterial) *float64 {
	switch b.QuantityType {
	case entities.QuantityFixed:
		return b.QuantityFixed
	case entities.QuantityAverage:
		return b.QuantityAvg
	case entities.QuantityRange:
		return b.QuantityMin
	}
	return nil
}
