package users

import (
	"time"
)

// AuthProviderType identifies how the account authenticates.
type AuthProviderType string

const (
	ProviderPassword AuthProviderType = "password"
	ProviderGoogle   AuthProviderType = "google"
)

// StatusType represents an account's standing on the server.
type StatusType string

const (
	StatusActive              StatusType = "active"
	StatusPendingVerification StatusType = "pending_verification"
	StatusDisabled            StatusType = "disabled"
)

// User is the identity record the session service returns. It is owned by
// the session manager: replaced wholesale on every successful
// login/refresh/validate and cleared on logout or expiry dismissal.
type User struct {
	ID                  string           `json:"id,omitempty"`                  // Unique identifier for the user
	Email               string           `json:"email,omitempty"`               // User's email address
	AuthProvider        AuthProviderType `json:"authProvider,omitempty"`        // How the account authenticates
	Status              StatusType       `json:"status,omitempty"`              // Account standing
	OnboardingCompleted bool             `json:"onboardingCompleted,omitempty"` // Has the user finished first-run onboarding
	HasAcceptedTerms    bool             `json:"hasAcceptedTerms,omitempty"`    // Has the user acknowledged the terms notice
	TermsAcceptedAt     *time.Time       `json:"termsAcceptedAt,omitempty"`     // When the terms were acknowledged
	CreatedAt           time.Time        `json:"createdAt,omitempty"`           // When the account was created
}

// Profile is the denormalized display/clinical projection shown alongside
// the identity. Its lifecycle is independent from User: it can be patched
// piecemeal via Merged while the identity record stays untouched.
type Profile struct {
	FullName          string     `json:"fullName,omitempty"`
	PhotoURL          string     `json:"photoUrl,omitempty"`
	Timezone          string     `json:"timezone,omitempty"`
	Units             string     `json:"units,omitempty"` // "metric" or "imperial"
	DryWeightKg       float64    `json:"dryWeightKg,omitempty"`
	HeightCm          float64    `json:"heightCm,omitempty"`
	DialysisStartDate *time.Time `json:"dialysisStartDate,omitempty"`
	ClinicName        string     `json:"clinicName,omitempty"`
	NephrologistName  string     `json:"nephrologistName,omitempty"`
}

// ProfilePatch is a partial profile update. Nil fields are left unchanged
// by Merged.
type ProfilePatch struct {
	FullName          *string    `json:"fullName,omitempty"`
	PhotoURL          *string    `json:"photoUrl,omitempty"`
	Timezone          *string    `json:"timezone,omitempty"`
	Units             *string    `json:"units,omitempty"`
	DryWeightKg       *float64   `json:"dryWeightKg,omitempty"`
	HeightCm          *float64   `json:"heightCm,omitempty"`
	DialysisStartDate *time.Time `json:"dialysisStartDate,omitempty"`
	ClinicName        *string    `json:"clinicName,omitempty"`
	NephrologistName  *string    `json:"nephrologistName,omitempty"`
}

// Merged returns a copy of the profile with the patch's non-nil fields
// applied (shallow merge).
func (p Profile) Merged(patch ProfilePatch) Profile {
	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.PhotoURL != nil {
		p.PhotoURL = *patch.PhotoURL
	}
	if patch.Timezone != nil {
		p.Timezone = *patch.Timezone
	}
	if patch.Units != nil {
		p.Units = *patch.Units
	}
	if patch.DryWeightKg != nil {
		p.DryWeightKg = *patch.DryWeightKg
	}
	if patch.HeightCm != nil {
		p.HeightCm = *patch.HeightCm
	}
	if patch.DialysisStartDate != nil {
		p.DialysisStartDate = patch.DialysisStartDate
	}
	if patch.ClinicName != nil {
		p.ClinicName = *patch.ClinicName
	}
	if patch.NephrologistName != nil {
		p.NephrologistName = *patch.NephrologistName
	}
	return p
}
