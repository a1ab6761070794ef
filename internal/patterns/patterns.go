// Package patterns classifies form-field context strings into semantic types.
package patterns

import "regexp"

// TypeUnknown marks a field whose context matched no rule.
const TypeUnknown = "unknown"

// Semantic type names assigned by the library. These double as the canonical
// names of the standard profile attributes.
const (
	TypeFirstName           = "firstName"
	TypeLastName            = "lastName"
	TypeFullName            = "fullName"
	TypeEmail               = "email"
	TypePhone               = "phone"
	TypeAddress             = "address"
	TypeAddress2            = "address2"
	TypeCity                = "city"
	TypeState               = "state"
	TypeZipCode             = "zipCode"
	TypeCountry             = "country"
	TypeCurrentCompany      = "currentCompany"
	TypeCurrentTitle        = "currentTitle"
	TypeYearsExperience     = "yearsExperience"
	TypeLinkedin            = "linkedin"
	TypeGithub              = "github"
	TypePortfolio           = "portfolio"
	TypeUniversity          = "university"
	TypeDegree              = "degree"
	TypeMajor               = "major"
	TypeGraduationYear      = "graduationYear"
	TypeWorkAuthorization   = "workAuthorization"
	TypeRequiresSponsorship = "requiresSponsorship"
	TypeSalaryExpectation   = "salaryExpectation"
	TypeStartDate           = "startDate"
	TypeNoticePeriod        = "noticePeriod"
	TypeReferral            = "referral"
	TypeHowDidYouHear       = "howDidYouHear"
	TypeCoverLetter         = "coverLetter"
	TypeAdditionalInfo      = "additionalInfo"
)

// Rule binds a semantic type to its matching expressions and a priority
// weight. Higher priority wins when several rules match the same context;
// among equal priorities the first-declared rule wins.
type Rule struct {
	Type     string
	Matchers []*regexp.Regexp
	Priority int
}

// rules is the library table. Declaration order is the tie-break, so this must
// stay a slice. Priorities reflect matching specificity: exact-field patterns
// (email, phone, linkedin) rank 10, broad catch-alls (additional info) rank 6.
var rules = []Rule{
	// Name fields.
	{Type: TypeFirstName, Matchers: exprs(`first.*name`, `fname`, `given.*name`), Priority: 10},
	{Type: TypeLastName, Matchers: exprs(`last.*name`, `lname`, `surname`, `family.*name`), Priority: 10},
	{Type: TypeFullName, Matchers: exprs(`^name$`, `full.*name`, `your.*name`), Priority: 9},

	// Contact fields.
	{Type: TypeEmail, Matchers: exprs(`email`, `e-mail`), Priority: 10},
	{Type: TypePhone, Matchers: exprs(`phone`, `mobile`, `telephone`, `contact.*number`), Priority: 10},

	// Address fields.
	{Type: TypeAddress, Matchers: exprs(`^address$`, `street.*address`, `address.*line.*1`), Priority: 10},
	{Type: TypeAddress2, Matchers: exprs(`address.*line.*2`, `apt`, `suite`, `unit`), Priority: 9},
	{Type: TypeCity, Matchers: exprs(`city`, `town`), Priority: 10},
	{Type: TypeState, Matchers: exprs(`state`, `province`, `region`), Priority: 10},
	{Type: TypeZipCode, Matchers: exprs(`zip`, `postal`, `postcode`), Priority: 10},
	{Type: TypeCountry, Matchers: exprs(`country`), Priority: 10},

	// Professional fields.
	{Type: TypeCurrentCompany, Matchers: exprs(`current.*company`, `employer`, `organization`), Priority: 9},
	{Type: TypeCurrentTitle, Matchers: exprs(`current.*title`, `job.*title`, `position`, `role`), Priority: 9},
	{Type: TypeYearsExperience, Matchers: exprs(`years.*experience`, `experience.*years`, `yoe`), Priority: 9},
	{Type: TypeLinkedin, Matchers: exprs(`linkedin`, `linkedin.*url`, `linkedin.*profile`), Priority: 10},
	{Type: TypeGithub, Matchers: exprs(`github`, `github.*url`, `github.*profile`), Priority: 10},
	{Type: TypePortfolio, Matchers: exprs(`portfolio`, `website`, `personal.*site`), Priority: 9},

	// Education fields.
	{Type: TypeUniversity, Matchers: exprs(`university`, `college`, `school`, `education`), Priority: 9},
	{Type: TypeDegree, Matchers: exprs(`degree`, `qualification`), Priority: 9},
	{Type: TypeMajor, Matchers: exprs(`major`, `field.*study`, `specialization`), Priority: 9},
	{Type: TypeGraduationYear, Matchers: exprs(`graduation`, `grad.*year`, `year.*graduated`), Priority: 9},

	// Work authorization.
	{Type: TypeWorkAuthorization, Matchers: exprs(`work.*authorization`, `authorized.*work`, `visa.*status`, `sponsorship`), Priority: 9},
	{Type: TypeRequiresSponsorship, Matchers: exprs(`require.*sponsorship`, `need.*sponsorship`, `visa.*sponsorship`), Priority: 9},

	// Salary and availability.
	{Type: TypeSalaryExpectation, Matchers: exprs(`salary`, `compensation`, `expected.*salary`), Priority: 8},
	{Type: TypeStartDate, Matchers: exprs(`start.*date`, `available.*date`, `availability`), Priority: 8},
	{Type: TypeNoticePeriod, Matchers: exprs(`notice.*period`, `notice`), Priority: 8},

	// Referral and source.
	{Type: TypeReferral, Matchers: exprs(`referral`, `referred.*by`, `reference`), Priority: 8},
	{Type: TypeHowDidYouHear, Matchers: exprs(`how.*hear`, `source`, `where.*find`), Priority: 7},

	// Cover letter and additional info.
	{Type: TypeCoverLetter, Matchers: exprs(`cover.*letter`, `why.*interested`, `tell.*us.*about`), Priority: 7},
	{Type: TypeAdditionalInfo, Matchers: exprs(`additional`, `other.*information`, `comments`, `notes`), Priority: 6},
}

func exprs(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+p))
	}
	return compiled
}

// MatchType classifies a context string, returning the semantic type of the
// highest-priority matching rule or TypeUnknown when nothing matches.
func MatchType(context string) string {
	best := ""
	bestPriority := 0

	for _, rule := range rules {
		for _, matcher := range rule.Matchers {
			if !matcher.MatchString(context) {
				continue
			}
			if best == "" || rule.Priority > bestPriority {
				best = rule.Type
				bestPriority = rule.Priority
			}
			break
		}
	}

	if best == "" {
		return TypeUnknown
	}
	return best
}

// Types returns the semantic type names in declaration order.
func Types() []string {
	names := make([]string, 0, len(rules))
	for _, rule := range rules {
		names = append(names, rule.Type)
	}
	return names
}
