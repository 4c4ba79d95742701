// Package domain holds typed identifiers shared across services. Wrapping
// uuid.UUID in distinct types keeps a card id from ever being passed where an
// application id is expected.
package domain

import "github.com/google/uuid"

type UserID uuid.UUID

type ApplicationID uuid.UUID

type CardID uuid.UUID

type ProviderID uuid.UUID

type EmployerID uuid.UUID

func NewUserID() UserID               { return UserID(uuid.New()) }
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }
func NewCardID() CardID               { return CardID(uuid.New()) }
func NewProviderID() ProviderID       { return ProviderID(uuid.New()) }
func NewEmployerID() EmployerID       { return EmployerID(uuid.New()) }

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id CardID) String() string        { return uuid.UUID(id).String() }
func (id ProviderID) String() string    { return uuid.UUID(id).String() }
func (id EmployerID) String() string    { return uuid.UUID(id).String() }

func (id UserID) IsZero() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id CardID) IsZero() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ProviderID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id EmployerID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }

func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ApplicationID{}, err
	}
	return ApplicationID(u), nil
}

func ParseCardID(s string) (CardID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return CardID{}, err
	}
	return CardID(u), nil
}

// MarshalText makes the typed ids render as canonical UUID strings in JSON.
func (id UserID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id ApplicationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id CardID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id ProviderID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id EmployerID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *ApplicationID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ApplicationID(u)
	return nil
}

func (id *CardID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = CardID(u)
	return nil
}

func (id *ProviderID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ProviderID(u)
	return nil
}

func (id *EmployerID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = EmployerID(u)
	return nil
}
