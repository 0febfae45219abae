package accounts

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicateUsername = errors.New("a user with that username already exists")
	ErrNoClientProfile   = errors.New("user has no client profile")
	QueryTimeoutDuration = time.Second * 5
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "cliente"
)

// TaxCondition is the Argentine VAT condition of a client.
type TaxCondition string

const (
	TaxRegistered    TaxCondition = "RI"
	TaxMonotributo   TaxCondition = "MO"
	TaxExempt        TaxCondition = "EX"
	TaxFinalConsumer TaxCondition = "CF"
)

// ParseTaxCondition maps free text such as "Responsable Inscripto" to a
// code. Anything unrecognised is a final consumer.
func ParseTaxCondition(s string) TaxCondition {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case strings.Contains(v, "INSCRIPTO") || v == "RI":
		return TaxRegistered
	case strings.Contains(v, "MONOTRIBUTO") || v == "MO":
		return TaxMonotributo
	case strings.Contains(v, "EXENTO") || v == "EX":
		return TaxExempt
	default:
		return TaxFinalConsumer
	}
}

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  password  `json:"-"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type ClientProfile struct {
	UserID       int64           `json:"user_id"`
	Name         string          `json:"name"`
	Contact      string          `json:"contact"`
	ClientType   string          `json:"client_type"`
	Province     string          `json:"province"`
	Address      string          `json:"address"`
	Phones       string          `json:"phones"`
	TaxID        string          `json:"tax_id"`
	Discount     decimal.Decimal `json:"discount"`
	TaxCondition TaxCondition    `json:"tax_condition"`
}

// ClientUpsert creates or updates a client account keyed by Username.
type ClientUpsert struct {
	Username string
	Email    string
	// Password is only applied to existing accounts when UpdatePassword is
	// set. New accounts fall back to the username when it is empty.
	Password       string
	UpdatePassword bool
	Profile        ClientProfile
}

// password keeps the plain text next to its bcrypt hash
type password struct {
	text *string
	hash []byte
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.text = &text
	p.hash = hash

	return nil
}

func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}
