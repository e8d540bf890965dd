// Package catalog describes how each entity type is listed, filtered, sorted
// and exported.
package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/export"
	"github.com/zatekoja/medbackoffice/internal/listing"
)

// ViewMode is how a list is rendered.
type ViewMode string

const (
	ViewCard  ViewMode = "card"
	ViewTable ViewMode = "table"
)

// Valid reports whether m is a known view mode.
func (m ViewMode) Valid() bool {
	return m == ViewCard || m == ViewTable
}

// SelectScope is the scope "select all" uses in this view mode.
func (m ViewMode) SelectScope() listing.Scope {
	if m == ViewTable {
		return listing.ScopeFiltered
	}
	return listing.ScopePage
}

// Info identifies an entity screen.
type Info struct {
	Slug        string   `json:"slug"`
	EntityType  string   `json:"entity_type"`
	Title       string   `json:"title"`
	DefaultView ViewMode `json:"default_view"`
}

// ViewPreferenceKey is the preference key holding the view mode of the screen.
func (i Info) ViewPreferenceKey() string {
	return i.Slug + "View_viewPreference"
}

// ListPreferenceKey is the preference key holding the saved filters and sort of the screen.
func (i Info) ListPreferenceKey() string {
	return i.Slug + "View_listPreference"
}

// Definition is the full configuration of one entity screen.
type Definition[T entities.Entity] struct {
	Info
	Listing  listing.Config[T]
	Columns  []export.Column[T]
	Defaults func() T
}

var infos = []Info{
	{Slug: "medicalCode", EntityType: entities.TypeMedicalCode, Title: "Medical codes", DefaultView: ViewTable},
	{Slug: "internalCode", EntityType: entities.TypeInternalCode, Title: "Internal codes", DefaultView: ViewTable},
	{Slug: "insuranceCode", EntityType: entities.TypeInsuranceCode, Title: "Insurance codes", DefaultView: ViewTable},
	{Slug: "diagnosisProcedureMapping", EntityType: entities.TypeDiagnosisProcedureMapping, Title: "Diagnosis to procedure mappings", DefaultView: ViewTable},
	{Slug: "contract", EntityType: entities.TypeContract, Title: "Contracts", DefaultView: ViewCard},
	{Slug: "claim", EntityType: entities.TypeClaim, Title: "Claims", DefaultView: ViewTable},
	{Slug: "doctor", EntityType: entities.TypeDoctor, Title: "Doctors", DefaultView: ViewCard},
	{Slug: "provider", EntityType: entities.TypeProvider, Title: "Providers", DefaultView: ViewCard},
	{Slug: "billOfMaterial", EntityType: entities.TypeBillOfMaterial, Title: "Bills of material", DefaultView: ViewTable},
	{Slug: "doctorProviderAffiliation", EntityType: entities.TypeDoctorProviderAffiliation, Title: "Doctor affiliations", DefaultView: ViewCard},
	{Slug: "address", EntityType: entities.TypeAddress, Title: "Addresses", DefaultView: ViewTable},
}

// All returns every registered screen.
func All() []Info {
	out := make([]Info, len(infos))
	copy(out, infos)
	return out
}

// Lookup finds a screen by slug or entity type, ignoring case.
func Lookup(name string) (Info, bool) {
	for _, info := range infos {
		if strings.EqualFold(info.Slug, name) || strings.EqualFold(info.EntityType, name) {
			return info, true
		}
	}
	return Info{}, false
}

func mustInfo(entityType string) Info {
	info, ok := Lookup(entityType)
	if !ok {
		panic("catalog: unregistered entity type " + entityType)
	}
	return info
}

func nilIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func decimalPtr(d decimal.Decimal) *float64 {
	f, _ := d.Float64()
	return &f
}

func intPtr(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

// activeOn reports whether [from, to] contains day; an empty to is open ended.
func activeOn(day, from, to string) bool {
	if from != "" && day < from {
		return false
	}
	return to == "" || day <= to
}
