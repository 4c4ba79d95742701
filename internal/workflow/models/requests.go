package models

import (
	"strings"

	domain "passbuy/pkg/domain"
	derrors "passbuy/pkg/domain-errors"
)

// EducationEvidenceRequest is the wire shape for education evidence. The
// provider is referenced by its public code and resolved by the service.
type EducationEvidenceRequest struct {
	ProviderCode  string `json:"providerCode"`
	StudentNumber int64  `json:"studentNumber"`
	CourseCode    string `json:"courseCode"`
	CourseTitle   string `json:"courseTitle"`
}

// TransportEvidenceRequest is the wire shape for employment evidence. The
// employer is referenced by name.
type TransportEvidenceRequest struct {
	EmployerName   string `json:"employerName"`
	EmployeeNumber int64  `json:"employeeNumber"`
}

// ApplyRequest carries the evidence payload for one card class. The class
// comes from the URL, not the body.
type ApplyRequest struct {
	CardClass CardClass                 `json:"-"`
	Education *EducationEvidenceRequest `json:"education,omitempty"`
	Transport *TransportEvidenceRequest `json:"transport,omitempty"`
}

func (r *ApplyRequest) Normalize() {
	if r.Education != nil {
		r.Education.ProviderCode = strings.TrimSpace(r.Education.ProviderCode)
		r.Education.CourseCode = strings.TrimSpace(r.Education.CourseCode)
		r.Education.CourseTitle = strings.TrimSpace(r.Education.CourseTitle)
	}
	if r.Transport != nil {
		r.Transport.EmployerName = strings.TrimSpace(r.Transport.EmployerName)
	}
}

// Validate checks that the payload shape matches the card class and that the
// matching variant is complete.
func (r *ApplyRequest) Validate() error {
	switch r.CardClass {
	case CardClassEducation:
		if r.Education == nil || r.Transport != nil {
			return derrors.New(derrors.CodeValidation, "an education concession requires education evidence only")
		}
		e := r.Education
		if e.ProviderCode == "" || e.StudentNumber <= 0 || e.CourseCode == "" || e.CourseTitle == "" {
			return derrors.New(derrors.CodeValidation, "provider code, student number, course code, and course title are required")
		}
	case CardClassTransportEmployee:
		if r.Transport == nil || r.Education != nil {
			return derrors.New(derrors.CodeValidation, "a transport employee concession requires employment evidence only")
		}
		t := r.Transport
		if t.EmployerName == "" || t.EmployeeNumber <= 0 {
			return derrors.New(derrors.CodeValidation, "employer name and employee number are required")
		}
	case CardClassStandard, CardClassYouth, CardClassPensioner:
		if r.Education != nil || r.Transport != nil {
			return derrors.Newf(derrors.CodeValidation, "card class %s accepts no evidence", r.CardClass)
		}
	default:
		return derrors.Newf(derrors.CodeValidation, "unknown card class %q", r.CardClass)
	}
	return nil
}

// FulfillRequest approves a pending application into an issued card.
type FulfillRequest struct {
	// ApplicationID is optional; when absent the most recently applied-for
	// pending application is fulfilled.
	ApplicationID   *domain.ApplicationID `json:"applicationId,omitempty"`
	FundingAccount  string                `json:"fundingAccount"`
	TopUpMode       string                `json:"topUpMode"`
	AutoThreshold   float64               `json:"autoThreshold,omitempty"`
	AutoAmount      float64               `json:"autoAmount,omitempty"`
	ScheduleCadence string                `json:"scheduleCadence,omitempty"`
	ScheduleAmount  float64               `json:"scheduleAmount,omitempty"`
}

func (r *FulfillRequest) Normalize() {
	r.FundingAccount = strings.TrimSpace(r.FundingAccount)
	r.TopUpMode = strings.ToLower(strings.TrimSpace(r.TopUpMode))
	if r.TopUpMode == "" {
		r.TopUpMode = string(TopUpManual)
	}
	r.ScheduleCadence = strings.ToLower(strings.TrimSpace(r.ScheduleCadence))
}

func (r *FulfillRequest) Validate() error {
	if r.FundingAccount == "" {
		return derrors.New(derrors.CodeBadRequest, "a funding account is required")
	}
	switch TopUpMode(r.TopUpMode) {
	case TopUpManual:
	case TopUpAuto:
		if r.AutoThreshold <= 0 || r.AutoAmount <= 0 {
			return derrors.New(derrors.CodeValidation, "auto top-up requires a positive threshold and amount")
		}
	case TopUpScheduled:
		if r.ScheduleCadence != "weekly" && r.ScheduleCadence != "monthly" {
			return derrors.New(derrors.CodeValidation, "schedule cadence must be weekly or monthly")
		}
		if r.ScheduleAmount <= 0 {
			return derrors.New(derrors.CodeValidation, "scheduled top-up requires a positive amount")
		}
	default:
		return derrors.Newf(derrors.CodeValidation, "unknown top-up mode %q", r.TopUpMode)
	}
	return nil
}

// TopUp builds the normalized top-up configuration. Only the fields relevant
// to the chosen mode survive.
func (r *FulfillRequest) TopUp() TopUp {
	switch TopUpMode(r.TopUpMode) {
	case TopUpAuto:
		return TopUp{
			Mode: TopUpAuto,
			Auto: &AutoTopUp{Threshold: r.AutoThreshold, Amount: r.AutoAmount},
		}
	case TopUpScheduled:
		return TopUp{
			Mode:     TopUpScheduled,
			Schedule: &ScheduledTopUp{Cadence: r.ScheduleCadence, Amount: r.ScheduleAmount},
		}
	default:
		return TopUp{Mode: TopUpManual}
	}
}
