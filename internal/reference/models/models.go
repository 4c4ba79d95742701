// Package models holds the reference catalog entities: the accepted education
// providers and transport employers used to validate application evidence.
package models

import domain "passbuy/pkg/domain"

// Provider is an accepted education institution. Code and Name are each
// globally unique.
type Provider struct {
	ID   domain.ProviderID `json:"id"`
	Code string            `json:"code"`
	Name string            `json:"name"`
}

// Employer is an accepted transport employer. Name is globally unique.
type Employer struct {
	ID   domain.EmployerID `json:"id"`
	Name string            `json:"name"`
}
