package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fanpass/internal/models"
	"fanpass/internal/utils"
)

type mockUserDB struct {
	mock.Mock
}

func (m *mockUserDB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserDB) GetUserByCPF(ctx context.Context, cpf string) (*models.User, error) {
	args := m.Called(ctx, cpf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserDB) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserDB) UpdatePublicKey(ctx context.Context, userID, publicKey string) error {
	args := m.Called(ctx, userID, publicKey)
	return args.Error(0)
}

type fakeIssuer struct{}

func (fakeIssuer) Issue(userID string) (string, error) {
	return "token-for-" + userID, nil
}

func registerRequest() *models.RegisterRequest {
	return &models.RegisterRequest{
		Name:       "Ana Silva",
		Email:      "Ana@Example.com",
		Password:   "s3cret-pass",
		CPF:        "123.456.789-00",
		WalletType: models.WalletTypeGenerated,
	}
}

func TestRegisterGeneratedWallet(t *testing.T) {
	db := new(mockUserDB)
	db.On("GetUserByEmail", mock.Anything, "ana@example.com").Return(nil, nil)
	db.On("GetUserByCPF", mock.Anything, "123.456.789-00").Return(nil, nil)
	db.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return utils.IsHexAddress(u.PublicKey) && u.Email == "ana@example.com" && u.Password != "s3cret-pass"
	})).Return(nil)

	svc := NewService(db, fakeIssuer{}, nil)

	resp, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, utils.IsHexAddress(resp.User.PublicKey))
	db.AssertExpectations(t)
}

func TestRegisterMetamaskWallet(t *testing.T) {
	db := new(mockUserDB)
	db.On("GetUserByEmail", mock.Anything, mock.Anything).Return(nil, nil)
	db.On("GetUserByCPF", mock.Anything, mock.Anything).Return(nil, nil)
	db.On("CreateUser", mock.Anything, mock.Anything).Return(nil)

	req := registerRequest()
	req.WalletType = models.WalletTypeMetamask
	req.PublicKey = "0x52908400098527886E0F7030069857D2E4169EE7"

	svc := NewService(db, fakeIssuer{}, nil)

	resp, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.PublicKey, resp.User.PublicKey)
}

func TestRegisterMetamaskWalletBadAddress(t *testing.T) {
	req := registerRequest()
	req.WalletType = models.WalletTypeMetamask
	req.PublicKey = "not-an-address"

	svc := NewService(new(mockUserDB), fakeIssuer{}, nil)

	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidWallet)
}

func TestRegisterUnknownWalletType(t *testing.T) {
	req := registerRequest()
	req.WalletType = "ledger"

	svc := NewService(new(mockUserDB), fakeIssuer{}, nil)

	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidWallet)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := new(mockUserDB)
	db.On("GetUserByEmail", mock.Anything, "ana@example.com").Return(&models.User{ID: "existing"}, nil)

	svc := NewService(db, fakeIssuer{}, nil)

	_, err := svc.Register(context.Background(), registerRequest())
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterDuplicateCPF(t *testing.T) {
	db := new(mockUserDB)
	db.On("GetUserByEmail", mock.Anything, mock.Anything).Return(nil, nil)
	db.On("GetUserByCPF", mock.Anything, "123.456.789-00").Return(&models.User{ID: "existing"}, nil)

	svc := NewService(db, fakeIssuer{}, nil)

	_, err := svc.Register(context.Background(), registerRequest())
	assert.ErrorIs(t, err, ErrCPFTaken)
}

func TestRegisterMissingFields(t *testing.T) {
	req := registerRequest()
	req.Email = ""

	svc := NewService(new(mockUserDB), fakeIssuer{}, nil)

	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLoginHappyPath(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	db := new(mockUserDB)
	db.On("GetUserByEmail", mock.Anything, "ana@example.com").Return(&models.User{
		ID:       "user-1",
		Email:    "ana@example.com",
		Password: string(hash),
	}, nil)

	svc := NewService(db, fakeIssuer{}, nil)

	resp, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "ana@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "token-for-user-1", resp.Token)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	db := new(mockUserDB)
	db.On("GetUserByEmail", mock.Anything, "ana@example.com").Return(&models.User{
		ID:       "user-1",
		Password: string(hash),
	}, nil)

	svc := NewService(db, fakeIssuer{}, nil)

	_, err = svc.Login(context.Background(), &models.LoginRequest{
		Email:    "ana@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	db := new(mockUserDB)
	db.On("GetUserByEmail", mock.Anything, mock.Anything).Return(nil, nil)

	svc := NewService(db, fakeIssuer{}, nil)

	_, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLinkWallet(t *testing.T) {
	db := new(mockUserDB)
	db.On("GetUserByID", mock.Anything, "user-1").Return(&models.User{ID: "user-1"}, nil)
	db.On("UpdatePublicKey", mock.Anything, "user-1", "0x52908400098527886E0F7030069857D2E4169EE7").Return(nil)

	svc := NewService(db, fakeIssuer{}, nil)

	resp, err := svc.LinkWallet(context.Background(), "user-1", &models.LinkWalletRequest{
		PublicKey:  "0x52908400098527886E0F7030069857D2E4169EE7",
		WalletType: models.WalletTypeMetamask,
	})
	require.NoError(t, err)
	assert.Equal(t, "0x52908400098527886E0F7030069857D2E4169EE7", resp.PublicKey)
	db.AssertExpectations(t)
}

func TestLinkWalletRejectsGeneratedType(t *testing.T) {
	svc := NewService(new(mockUserDB), fakeIssuer{}, nil)

	_, err := svc.LinkWallet(context.Background(), "user-1", &models.LinkWalletRequest{
		PublicKey:  "0x52908400098527886E0F7030069857D2E4169EE7",
		WalletType: models.WalletTypeGenerated,
	})
	assert.ErrorIs(t, err, ErrInvalidWallet)
}
