// Package models holds the card application aggregate, its type-conditional
// evidence, and the issued card record.
//
// Evidence is modeled as a tagged union keyed by card class: an application
// carries at most one evidence variant, and Validate rejects any variant that
// does not match the class before persistence is attempted. The original
// schema allowed any combination of optional evidence rows and checked
// afterwards; here the mismatch is caught at the boundary.
package models

import (
	"time"

	domain "passbuy/pkg/domain"
	derrors "passbuy/pkg/domain-errors"
)

// CardClass is the category of concession determining required evidence.
type CardClass string

const (
	CardClassStandard          CardClass = "Standard"
	CardClassEducation         CardClass = "EducationConcession"
	CardClassYouth             CardClass = "YouthConcession"
	CardClassPensioner         CardClass = "PensionerConcession"
	CardClassTransportEmployee CardClass = "TransportEmployeeConcession"
)

// ParseCardClass maps the URL slug to a card class.
func ParseCardClass(slug string) (CardClass, error) {
	switch slug {
	case "standard":
		return CardClassStandard, nil
	case "education":
		return CardClassEducation, nil
	case "youth":
		return CardClassYouth, nil
	case "pensioner":
		return CardClassPensioner, nil
	case "transport-employee":
		return CardClassTransportEmployee, nil
	default:
		return "", derrors.Newf(derrors.CodeValidation, "unknown card class %q", slug)
	}
}

// Status is the application lifecycle state. Approved is terminal; deletion is
// represented by row removal.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
)

// EducationEvidence is attached 1:1 to an EducationConcession application.
// Unique per (provider, student number) across all applications.
type EducationEvidence struct {
	ProviderID    domain.ProviderID `json:"providerId"`
	StudentNumber int64             `json:"studentNumber"`
	CourseCode    string            `json:"courseCode"`
	CourseTitle   string            `json:"courseTitle"`
}

// TransportEvidence is attached 1:1 to a TransportEmployeeConcession
// application. Unique per (employer, employee number).
type TransportEvidence struct {
	EmployerID     domain.EmployerID `json:"employerId"`
	EmployeeNumber int64             `json:"employeeNumber"`
}

// Application is a request for a concession card.
type Application struct {
	ID        domain.ApplicationID `json:"id"`
	UserID    domain.UserID        `json:"userId"`
	CardClass CardClass            `json:"cardClass"`
	Status    Status               `json:"status"`
	AppliedAt time.Time            `json:"appliedAt"`

	// At most one variant is set, and only the one matching CardClass.
	Education *EducationEvidence `json:"education,omitempty"`
	Transport *TransportEvidence `json:"transport,omitempty"`
}

// Validate enforces the evidence-matches-class invariant. Youth and Pensioner
// currently require no structured evidence; a government-ID integration may
// change that.
func (a *Application) Validate() error {
	switch a.CardClass {
	case CardClassEducation:
		if a.Education == nil {
			return derrors.New(derrors.CodeValidation, "education evidence is required for an education concession")
		}
		if a.Transport != nil {
			return derrors.New(derrors.CodeValidation, "transport evidence does not match card class")
		}
	case CardClassTransportEmployee:
		if a.Transport == nil {
			return derrors.New(derrors.CodeValidation, "employment evidence is required for a transport employee concession")
		}
		if a.Education != nil {
			return derrors.New(derrors.CodeValidation, "education evidence does not match card class")
		}
	case CardClassStandard, CardClassYouth, CardClassPensioner:
		if a.Education != nil || a.Transport != nil {
			return derrors.Newf(derrors.CodeValidation, "card class %s accepts no evidence", a.CardClass)
		}
	default:
		return derrors.Newf(derrors.CodeValidation, "unknown card class %q", a.CardClass)
	}
	return nil
}

// TopUpMode is how an issued card's balance is replenished.
type TopUpMode string

const (
	TopUpManual    TopUpMode = "manual"
	TopUpAuto      TopUpMode = "auto"
	TopUpScheduled TopUpMode = "scheduled"
)

// AutoTopUp triggers a top-up when the balance drops below Threshold.
type AutoTopUp struct {
	Threshold float64 `json:"threshold"`
	Amount    float64 `json:"amount"`
}

// ScheduledTopUp tops up on a fixed cadence.
type ScheduledTopUp struct {
	Cadence string  `json:"cadence"` // weekly | monthly
	Amount  float64 `json:"amount"`
}

// TopUp is the card's replenishment configuration. Only the variant matching
// Mode is set; the other is null in storage and on the wire.
type TopUp struct {
	Mode     TopUpMode       `json:"mode"`
	Auto     *AutoTopUp      `json:"auto"`
	Schedule *ScheduledTopUp `json:"schedule"`
}

// Card is an issued concession card. Created only by fulfillment and
// immutable thereafter except for deletion.
type Card struct {
	ID             domain.CardID        `json:"id"`
	UserID         domain.UserID        `json:"userId"`
	ApplicationID  domain.ApplicationID `json:"applicationId"`
	CardClass      CardClass            `json:"cardClass"`
	ApprovedAt     time.Time            `json:"approvedAt"`
	TopUp          TopUp                `json:"topUp"`
	FundingAccount string               `json:"fundingAccount"`
}

// ReconcileResult reports what stale-application cleanup did.
type ReconcileResult struct {
	DeletedApplications int `json:"deletedApplications"`
	DeletedEvidence     int `json:"deletedEvidence"`
	SkippedLinkedToCard int `json:"skippedLinkedToCard"`
}
