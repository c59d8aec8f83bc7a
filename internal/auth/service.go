package auth

import (
	"context"
	"time"

	"github.com/meridianbank/meridian/internal/bank"
	"github.com/meridianbank/meridian/internal/config"
	"github.com/meridianbank/meridian/internal/customer"
)

// Service handles registration and the token lifecycle on top of the bank
// registry. The registry never sees raw passwords; hashing happens here.
type Service struct {
	cfg  config.Config
	bank *bank.Service
}

// NewService builds the auth service.
func NewService(cfg config.Config, b *bank.Service) *Service {
	return &Service{cfg: cfg, bank: b}
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RegisterInput carries the raw registration fields.
type RegisterInput struct {
	CPF      string
	Name     string
	Address  string
	Password string
}

// Register hashes the password and creates the customer in the registry.
func (s *Service) Register(ctx context.Context, in RegisterInput) (customer.Customer, error) {
	hash, err := HashPassword(in.Password)
	if err != nil {
		return customer.Customer{}, err
	}
	return s.bank.RegisterCustomer(ctx, bank.RegisterInput{
		CPF:          in.CPF,
		Name:         in.Name,
		Address:      in.Address,
		PasswordHash: hash,
	})
}

// Login verifies credentials and issues an access/refresh token pair bound
// to the customer's current token version.
func (s *Service) Login(ctx context.Context, cpf, password string) (customer.Customer, TokenPair, error) {
	c, err := s.bank.CustomerByCPF(ctx, cpf)
	if err != nil {
		// Same failure as a bad password, to avoid leaking which CPFs exist.
		return customer.Customer{}, TokenPair{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(c.PasswordHash, password); err != nil {
		return customer.Customer{}, TokenPair{}, err
	}

	access, accessExp, err := SignToken(c.CPF, c.TokenVersion, []byte(s.cfg.JWTSecret), s.cfg.AccessTokenTTL)
	if err != nil {
		return customer.Customer{}, TokenPair{}, err
	}
	refresh, _, err := SignToken(c.CPF, c.TokenVersion, []byte(s.cfg.RefreshSecret), s.cfg.RefreshTokenTTL)
	if err != nil {
		return customer.Customer{}, TokenPair{}, err
	}

	pair := TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(accessExp).Seconds()),
	}
	return c, pair, nil
}

// Refresh verifies the refresh token and returns a new access token when the
// token version is still current.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	claims, err := ParseToken(refreshToken, []byte(s.cfg.RefreshSecret))
	if err != nil {
		return "", 0, ErrInvalidToken
	}
	c, err := s.bank.CustomerByCPF(ctx, claims.Subject)
	if err != nil {
		return "", 0, ErrInvalidToken
	}
	if c.TokenVersion != claims.TokenVersion {
		return "", 0, ErrInvalidToken
	}

	access, _, err := SignToken(c.CPF, c.TokenVersion, []byte(s.cfg.JWTSecret), s.cfg.AccessTokenTTL)
	if err != nil {
		return "", 0, err
	}
	return access, int64(s.cfg.AccessTokenTTL.Seconds()), nil
}

// Logout bumps the token version so all outstanding tokens become invalid.
func (s *Service) Logout(ctx context.Context, cpf string) error {
	_, err := s.bank.BumpTokenVersion(ctx, cpf)
	return err
}

// VerifyAccess validates an access token and returns the authenticated
// customer's natural key.
func (s *Service) VerifyAccess(ctx context.Context, token string) (string, error) {
	claims, err := ParseToken(token, []byte(s.cfg.JWTSecret))
	if err != nil {
		return "", err
	}
	c, err := s.bank.CustomerByCPF(ctx, claims.Subject)
	if err != nil || c.TokenVersion != claims.TokenVersion {
		return "", ErrInvalidToken
	}
	return c.CPF, nil
}
