package catalog

import (
	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/export"
	"github.com/zatekoja/medbackoffice/internal/listing"
)

// Doctors configures the doctor screen.
func Doctors() Definition[entities.Doctor] {
	return Definition[entities.Doctor]{
		Info: mustInfo(entities.TypeDoctor),
		Listing: listing.Config[entities.Doctor]{
			EntityType:     entities.TypeDoctor,
			InitialFilters: listing.Filters{"search": "", "specialty": "", "status": listing.All},
			Predicate: func(d entities.Doctor, f listing.Filters) bool {
				return listing.MatchText(f, "search", d.FirstNameEn, d.LastNameEn, d.FirstNameHe, d.LastNameHe, d.LicenseNumber) &&
					listing.MatchText(f, "specialty", d.Specialty) &&
					listing.MatchEnum(f, "status", d.Status)
			},
			SortFields: map[string]listing.SortKey[entities.Doctor]{
				"name":           func(d entities.Doctor) any { return nilIfEmpty(d.DisplayName()) },
				"license_number": func(d entities.Doctor) any { return d.LicenseNumber },
				"specialty":      func(d entities.Doctor) any { return nilIfEmpty(d.Specialty) },
				"status":         func(d entities.Doctor) any { return d.Status },
			},
			DefaultSort: listing.SortState{Key: "name", Direction: listing.Ascending},
		},
		Columns: []export.Column[entities.Doctor]{
			{Header: "First name (EN)", Width: 18, Value: func(d entities.Doctor) any { return d.FirstNameEn }},
			{Header: "Last name (EN)", Width: 18, Value: func(d entities.Doctor) any { return d.LastNameEn }},
			{Header: "First name (HE)", Width: 18, Value: func(d entities.Doctor) any { return d.FirstNameHe }},
			{Header: "Last name (HE)", Width: 18, Value: func(d entities.Doctor) any { return d.LastNameHe }},
			{Header: "License", Width: 14, Value: func(d entities.Doctor) any { return d.LicenseNumber }},
			{Header: "Specialty", Width: 20, Value: func(d entities.Doctor) any { return d.Specialty }},
			{Header: "Phone", Width: 14, Value: func(d entities.Doctor) any { return d.Phone }},
			{Header: "Email", Width: 24, Value: func(d entities.Doctor) any { return d.Email }},
			{Header: "Address", Width: 38, Value: func(d entities.Doctor) any { return d.AddressID }},
			{Header: "Status", Value: func(d entities.Doctor) any { return d.Status }},
		},
		Defaults: func() entities.Doctor {
			return entities.Doctor{Status: entities.StatusActive}
		},
	}
}

// Providers configures the provider screen.
func Providers() Definition[entities.Provider] {
	return Definition[entities.Provider]{
		Info: mustInfo(entities.TypeProvider),
		Listing: listing.Config[entities.Provider]{
			EntityType:     entities.TypeProvider,
			InitialFilters: listing.Filters{"search": "", "providerType": listing.All, "status": listing.All},
			Predicate: func(p entities.Provider, f listing.Filters) bool {
				return listing.MatchText(f, "search", p.NameEn, p.NameHe, p.ProviderCode) &&
					listing.MatchEnum(f, "providerType", p.ProviderType) &&
					listing.MatchEnum(f, "status", p.Status)
			},
			SortFields: map[string]listing.SortKey[entities.Provider]{
				"name":          func(p entities.Provider) any { return nilIfEmpty(p.DisplayName()) },
				"provider_code": func(p entities.Provider) any { return nilIfEmpty(p.ProviderCode) },
				"provider_type": func(p entities.Provider) any { return nilIfEmpty(p.ProviderType) },
				"status":        func(p entities.Provider) any { return p.Status },
			},
			DefaultSort: listing.SortState{Key: "name", Direction: listing.Ascending},
		},
		Columns: []export.Column[entities.Provider]{
			{Header: "Name (EN)", Width: 30, Value: func(p entities.Provider) any { return p.NameEn }},
			{Header: "Name (HE)", Width: 30, Value: func(p entities.Provider) any { return p.NameHe }},
			{Header: "Code", Width: 12, Value: func(p entities.Provider) any { return p.ProviderCode }},
			{Header: "Type", Width: 12, Value: func(p entities.Provider) any { return p.ProviderType }},
			{Header: "Phone", Width: 14, Value: func(p entities.Provider) any { return p.Phone }},
			{Header: "Email", Width: 24, Value: func(p entities.Provider) any { return p.Email }},
			{Header: "Address", Width: 38, Value: func(p entities.Provider) any { return p.AddressID }},
			{Header: "Status", Value: func(p entities.Provider) any { return p.Status }},
		},
		Defaults: func() entities.Provider {
			return entities.Provider{Status: entities.StatusActive}
		},
	}
}

// Affiliations configures the doctor to provider affiliation screen.
func Affiliations() Definition[entities.DoctorProviderAffiliation] {
	type affiliation = entities.DoctorProviderAffiliation
	return Definition[affiliation]{
		Info: mustInfo(entities.TypeDoctorProviderAffiliation),
		Listing: listing.Config[affiliation]{
			EntityType: entities.TypeDoctorProviderAffiliation,
			InitialFilters: listing.Filters{
				"search": "", "doctorId": listing.All, "providerId": listing.All,
				"status": listing.All, "isPrimaryLocation": listing.All, "activeOn": "",
			},
			Predicate: func(a affiliation, f listing.Filters) bool {
				if day, ok := f.Active("activeOn"); ok && !activeOn(day, a.StartDate, a.EndDate) {
					return false
				}
				return listing.MatchText(f, "search", a.SpecialNotes) &&
					listing.MatchEnum(f, "doctorId", a.DoctorID) &&
					listing.MatchEnum(f, "providerId", a.ProviderID) &&
					listing.MatchEnum(f, "status", string(a.AffiliationStatus)) &&
					listing.MatchBool(f, "isPrimaryLocation", a.IsPrimaryLocation)
			},
			SortFields: map[string]listing.SortKey[affiliation]{
				"start_date":         func(a affiliation) any { return nilIfEmpty(a.StartDate) },
				"end_date":           func(a affiliation) any { return nilIfEmpty(a.EndDate) },
				"affiliation_status": func(a affiliation) any { return string(a.AffiliationStatus) },
				"doctor_id":          func(a affiliation) any { return a.DoctorID },
				"provider_id":        func(a affiliation) any { return a.ProviderID },
			},
			DefaultSort: listing.SortState{Key: "start_date", Direction: listing.Descending},
		},
		Columns: []export.Column[affiliation]{
			{Header: "Doctor", Width: 20, Value: func(a affiliation) any { return a.DoctorID }},
			{Header: "Provider", Width: 20, Value: func(a affiliation) any { return a.ProviderID }},
			{Header: "Status", Width: 16, Value: func(a affiliation) any { return string(a.AffiliationStatus) }},
			{Header: "Start", Width: 12, Value: func(a affiliation) any { return a.StartDate }},
			{Header: "End", Width: 12, Value: func(a affiliation) any { return a.EndDate }},
			{Header: "Primary location", Value: func(a affiliation) any { return a.IsPrimaryLocation }},
			{Header: "Notes", Width: 40, Value: func(a affiliation) any { return a.SpecialNotes }},
		},
		Defaults: func() affiliation {
			return affiliation{AffiliationStatus: entities.AffiliationPendingApproval}
		},
	}
}

// Addresses configures the structured address screen.
func Addresses() Definition[entities.Address] {
	return Definition[entities.Address]{
		Info: mustInfo(entities.TypeAddress),
		Listing: listing.Config[entities.Address]{
			EntityType:     entities.TypeAddress,
			InitialFilters: listing.Filters{"search": "", "city": "", "country": listing.All},
			Predicate: func(a entities.Address, f listing.Filters) bool {
				return listing.MatchText(f, "search", a.Street, a.City, a.PostalCode) &&
					listing.MatchText(f, "city", a.City) &&
					listing.MatchEnum(f, "country", a.Country)
			},
			SortFields: map[string]listing.SortKey[entities.Address]{
				"city":    func(a entities.Address) any { return nilIfEmpty(a.City) },
				"street":  func(a entities.Address) any { return nilIfEmpty(a.Street) },
				"country": func(a entities.Address) any { return nilIfEmpty(a.Country) },
			},
			DefaultSort: listing.SortState{Key: "city", Direction: listing.Ascending},
		},
		Columns: []export.Column[entities.Address]{
			{Header: "Street", Width: 32, Value: func(a entities.Address) any { return a.Street }},
			{Header: "City", Width: 20, Value: func(a entities.Address) any { return a.City }},
			{Header: "Postal code", Width: 12, Value: func(a entities.Address) any { return a.PostalCode }},
			{Header: "Country", Width: 12, Value: func(a entities.Address) any { return a.Country }},
		},
	}
}
