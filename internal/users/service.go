package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fanpass/internal/logger"
	"fanpass/internal/models"
	"fanpass/internal/utils"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrCPFTaken           = errors.New("cpf already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidWallet      = errors.New("invalid wallet")
	ErrNotFound           = errors.New("user not found")
)

// UserDBLayer is the persistence surface the service needs. Missing rows
// are (nil, nil).
type UserDBLayer interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByCPF(ctx context.Context, cpf string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdatePublicKey(ctx context.Context, userID, publicKey string) error
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type Service struct {
	DB     UserDBLayer
	Tokens TokenIssuer
	Logger *logger.Logger
}

func NewService(db UserDBLayer, tokens TokenIssuer, logger *logger.Logger) *Service {
	return &Service{DB: db, Tokens: tokens, Logger: logger}
}

// Register creates a user account with either a server-generated custodial
// wallet or a client-supplied one, hashes the password and returns a
// session token.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.LoginResponse, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" || req.CPF == "" {
		return nil, fmt.Errorf("%w: name, email, password and cpf are required", ErrValidation)
	}

	publicKey, err := resolveWallet(req.WalletType, req.PublicKey)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.DB.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	existing, err = s.DB.GetUserByCPF(ctx, req.CPF)
	if err != nil {
		return nil, fmt.Errorf("failed to check cpf: %w", err)
	}
	if existing != nil {
		return nil, ErrCPFTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     email,
		Password:  string(hash),
		CPF:       req.CPF,
		PublicKey: publicKey,
	}
	if err := s.DB.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if s.Logger != nil {
		s.Logger.LogDatabase("INSERT", "users", fmt.Sprintf("registered user %s", user.ID))
	}

	return &models.LoginResponse{User: user.Profile(), Token: token}, nil
}

// resolveWallet turns the registration wallet choice into an address. A
// generated wallet gets a fresh server-side address; a metamask wallet
// must arrive with a valid one.
func resolveWallet(walletType, publicKey string) (string, error) {
	switch walletType {
	case models.WalletTypeGenerated:
		return utils.GenerateWalletAddress()
	case models.WalletTypeMetamask:
		if !utils.IsHexAddress(publicKey) {
			return "", fmt.Errorf("%w: publicKey must be a 0x-prefixed 40-hex-char address", ErrInvalidWallet)
		}
		return publicKey, nil
	default:
		return "", fmt.Errorf("%w: walletType must be %q or %q", ErrInvalidWallet,
			models.WalletTypeGenerated, models.WalletTypeMetamask)
	}
}

func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.DB.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &models.LoginResponse{User: user.Profile(), Token: token}, nil
}

// LinkWallet replaces the user's wallet address with a client-supplied one.
func (s *Service) LinkWallet(ctx context.Context, userID string, req *models.LinkWalletRequest) (*models.LinkWalletResponse, error) {
	if req.WalletType != models.WalletTypeMetamask {
		return nil, fmt.Errorf("%w: only %q wallets can be linked", ErrInvalidWallet, models.WalletTypeMetamask)
	}
	if !utils.IsHexAddress(req.PublicKey) {
		return nil, fmt.Errorf("%w: publicKey must be a 0x-prefixed 40-hex-char address", ErrInvalidWallet)
	}

	user, err := s.DB.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	if err := s.DB.UpdatePublicKey(ctx, userID, req.PublicKey); err != nil {
		return nil, fmt.Errorf("failed to link wallet: %w", err)
	}

	if s.Logger != nil {
		s.Logger.LogDatabase("UPDATE", "users", fmt.Sprintf("linked wallet for user %s", userID))
	}

	return &models.LinkWalletResponse{
		Message:   "Wallet linked successfully",
		PublicKey: req.PublicKey,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	user, err := s.DB.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	profile := user.Profile()
	return &profile, nil
}
