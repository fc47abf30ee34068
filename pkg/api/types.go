package api

import "time"

// User is a dojo-owner account, the unit of data isolation. Users are
// created out of band; there is no signup endpoint.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	DojoName     string    `json:"dojo_name"`
	LogoURL      string    `json:"logo"`
	CreatedAt    time.Time `json:"-"`
}

// Summary returns the non-sensitive view of a user embedded in login
// responses. The password hash never leaves the server.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Email:    u.Email,
		Role:     u.Role,
		DojoName: u.DojoName,
		LogoURL:  u.LogoURL,
	}
}

// UserSummary is the user projection returned by POST /login.
type UserSummary struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	DojoName string `json:"dojo_name"`
	LogoURL  string `json:"logo"`
}

// Student is a dojo member owned by exactly one user. Payments is a
// flexible month-to-status map (e.g. "2026-03" -> "pago").
type Student struct {
	ID         int64             `json:"id"`
	UserID     int64             `json:"user_id"`
	Name       string            `json:"nome"`
	Whatsapp   string            `json:"whatsapp"`
	Modality   string            `json:"modalidade"`
	Instructor string            `json:"professor"`
	DueDay     int               `json:"vencimento"`
	Status     string            `json:"status"`
	Payments   map[string]string `json:"pagamentos"`
}

// DojoConfig holds per-tenant naming for modalities and instructors.
// At most one row per user; absence is represented by Default, not an error.
type DojoConfig struct {
	Modalities  map[string]string `json:"nomes_modalidades"`
	Instructors map[string]string `json:"mapa_professores"`
}

// DefaultDojoConfig returns the empty config served when a tenant has no
// stored row: {"nomes_modalidades":{},"mapa_professores":{}}.
func DefaultDojoConfig() *DojoConfig {
	return &DojoConfig{
		Modalities:  map[string]string{},
		Instructors: map[string]string{},
	}
}

// FinancialConfig is an arbitrary per-tenant settings document. The
// backend stores and returns it opaquely; an absent row is served as {}.
type FinancialConfig map[string]any

// LoginRequest is the POST /login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the signed session token and the user summary.
type LoginResponse struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

// PaymentsPatch is the PATCH /students/{id}/payments body.
type PaymentsPatch struct {
	Payments map[string]string `json:"pagamentos"`
}
