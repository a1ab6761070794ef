// Package profile models the personal answer store: the fixed standard
// attributes, the open-ended learned answers, per-site overrides, and explicit
// pattern-based field mappings.
package profile

import (
	"strconv"
	"strings"

	"github.com/magicfill/magicfill/internal/patterns"
)

// PersonalData is a read snapshot of one user's answer store. The resolver
// never mutates it; writes go through the storage collaborator only.
type PersonalData struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`

	Address  string `json:"address"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Country  string `json:"country"`

	CurrentCompany  string `json:"currentCompany,omitempty"`
	CurrentTitle    string `json:"currentTitle,omitempty"`
	YearsExperience int    `json:"yearsExperience,omitempty"`
	Linkedin        string `json:"linkedin,omitempty"`
	Github          string `json:"github,omitempty"`
	Portfolio       string `json:"portfolio,omitempty"`

	University     string `json:"university,omitempty"`
	Degree         string `json:"degree,omitempty"`
	Major          string `json:"major,omitempty"`
	GraduationYear int    `json:"graduationYear,omitempty"`

	WorkAuthorization   string `json:"workAuthorization,omitempty"`
	RequiresSponsorship bool   `json:"requiresSponsorship,omitempty"`

	SalaryExpectation string `json:"salaryExpectation,omitempty"`
	StartDate         string `json:"startDate,omitempty"`
	NoticePeriod      string `json:"noticePeriod,omitempty"`
	Referral          string `json:"referral,omitempty"`
	HowDidYouHear     string `json:"howDidYouHear,omitempty"`
	CoverLetter       string `json:"coverLetter,omitempty"`
	AdditionalInfo    string `json:"additionalInfo,omitempty"`

	// CustomAnswers maps keygen-derived camelCase keys to learned answers.
	CustomAnswers map[string]string `json:"customAnswers,omitempty"`
	// SiteSpecificAnswers maps a hostname to a customAnswers-shaped map.
	SiteSpecificAnswers map[string]map[string]string `json:"siteSpecificAnswers,omitempty"`
	// FieldMappings are explicit substring-pattern override rules; they beat
	// every other resolution source.
	FieldMappings map[string]FieldMapping `json:"fieldMappings,omitempty"`
}

// FieldMapping is one override rule: any context containing one of the
// patterns (case-insensitive) resolves to Value.
type FieldMapping struct {
	Value    string   `json:"value"`
	Patterns []string `json:"patterns"`
}

// standardField describes one fixed profile attribute. emptyOK marks the
// attributes that resolve to an explicit empty string rather than "no match"
// when blank; the asymmetry is inherited from the original answer store and
// kept per field rather than inferred.
type standardField struct {
	emptyOK bool
	get     func(*PersonalData) Value
}

var standardFields = map[string]standardField{
	patterns.TypeFirstName: {get: func(d *PersonalData) Value { return String(d.FirstName) }},
	patterns.TypeLastName:  {get: func(d *PersonalData) Value { return String(d.LastName) }},
	patterns.TypeFullName: {get: func(d *PersonalData) Value {
		return String(strings.TrimSpace(d.FirstName + " " + d.LastName))
	}},
	patterns.TypeEmail:   {get: func(d *PersonalData) Value { return String(d.Email) }},
	patterns.TypePhone:   {get: func(d *PersonalData) Value { return String(d.Phone) }},
	patterns.TypeAddress: {get: func(d *PersonalData) Value { return String(d.Address) }},
	patterns.TypeAddress2: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(d.Address2) }},
	patterns.TypeCity:    {get: func(d *PersonalData) Value { return String(d.City) }},
	patterns.TypeState:   {get: func(d *PersonalData) Value { return String(d.State) }},
	patterns.TypeZipCode: {get: func(d *PersonalData) Value { return String(d.ZipCode) }},
	patterns.TypeCountry: {get: func(d *PersonalData) Value { return String(d.Country) }},
	patterns.TypeCurrentCompany: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(d.CurrentCompany) }},
	patterns.TypeCurrentTitle: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(d.CurrentTitle) }},
	patterns.TypeYearsExperience: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(positiveInt(d.YearsExperience)) }},
	patterns.TypeLinkedin: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(d.Linkedin) }},
	patterns.TypeGithub: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(d.Github) }},
	patterns.TypePortfolio: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(d.Portfolio) }},
	patterns.TypeUniversity: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(d.University) }},
	patterns.TypeDegree: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(d.Degree) }},
	patterns.TypeMajor: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(d.Major) }},
	patterns.TypeGraduationYear: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(positiveInt(d.GraduationYear)) }},
	patterns.TypeWorkAuthorization: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(d.WorkAuthorization) }},
	patterns.TypeRequiresSponsorship: {emptyOK: true,
		get: func(d *PersonalData) Value { return Bool(d.RequiresSponsorship) }},
	patterns.TypeSalaryExpectation: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(d.SalaryExpectation) }},
	patterns.TypeStartDate: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(d.StartDate) }},
	patterns.TypeNoticePeriod: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(d.NoticePeriod) }},
	patterns.TypeReferral: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(d.Referral) }},
	patterns.TypeHowDidYouHear: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(d.HowDidYouHear) }},
	patterns.TypeCoverLetter: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(d.CoverLetter) }},
	patterns.TypeAdditionalInfo: {emptyOK: true,
		get: func(d *PersonalData) Value { return String(d.AdditionalInfo) }},
}

// positiveInt renders a count attribute, treating zero as unset.
func positiveInt(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// StandardValue looks up a standard attribute by its semantic type name.
//
// The second return reports whether the type names a standard attribute at
// all. When it does, blank attributes behave in one of two ways: attributes
// marked with an explicit empty default return (String(""), true), all others
// return an empty Value and false on the third return.
func (d *PersonalData) StandardValue(semanticType string) (Value, bool, bool) {
	field, ok := standardFields[semanticType]
	if !ok {
		return Value{}, false, false
	}

	value := field.get(d)
	if value.Kind() == KindString && value.Str() == "" && !field.emptyOK {
		return Value{}, true, false
	}

	return value, true, true
}

// SiteAnswers returns the custom answers scoped to hostname, or nil.
func (d *PersonalData) SiteAnswers(hostname string) map[string]string {
	if d.SiteSpecificAnswers == nil {
		return nil
	}
	return d.SiteSpecificAnswers[hostname]
}

// IsStandardType reports whether the semantic type names a standard attribute.
func IsStandardType(semanticType string) bool {
	_, ok := standardFields[semanticType]
	return ok
}
