package domain

import "time"

// Session is an authenticated session issued by the identity provider.
type Session struct {
	Token      string
	ID         string
	IdentityID string
	Email      string
	Active     bool
	ExpiresAt  time.Time
}

// NewIdentity is the registration payload sent to the identity provider.
type NewIdentity struct {
	Email           string
	Password        string
	FullName        string
	Role            Role
	ConfirmationURL string
}

// Profile is the application-owned record joined to an identity by ID.
type Profile struct {
	ID        string
	FullName  string
	Email     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CompensationStatus tracks a recorded sign-up rollback.
type CompensationStatus string

const (
	CompensationPending CompensationStatus = "pending"
	CompensationDone    CompensationStatus = "done"
)

// Compensation records an identity that must be deleted because its profile
// could not be created.
type Compensation struct {
	ID         string
	IdentityID string
	Reason     string
	Status     CompensationStatus
	Attempts   int
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
