package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	WalletTypeGenerated = "generated"
	WalletTypeMetamask  = "metamask"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,unique,notnull" json:"email"`
	Password  string    `bun:"password,notnull" json:"-"`
	CPF       string    `bun:"cpf,unique,notnull" json:"cpf"`
	PublicKey string    `bun:"public_key,unique,notnull" json:"publicKey"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	CPF        string `json:"cpf"`
	WalletType string `json:"walletType"`
	PublicKey  string `json:"publicKey,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserProfile is the user shape returned to clients. The password hash
// never leaves the service layer.
type UserProfile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CPF       string `json:"cpf,omitempty"`
	PublicKey string `json:"publicKey"`
}

type LoginResponse struct {
	User  UserProfile `json:"user"`
	Token string      `json:"token"`
}

type LinkWalletRequest struct {
	PublicKey  string `json:"publicKey"`
	WalletType string `json:"walletType"`
}

type LinkWalletResponse struct {
	Message   string `json:"message"`
	PublicKey string `json:"publicKey"`
}

func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CPF:       u.CPF,
		PublicKey: u.PublicKey,
	}
}
