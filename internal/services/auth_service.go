package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"practice-journal-api/internal/apperror"
	"practice-journal-api/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer = "practice-journal"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenPair is returned on login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 access and refresh tokens.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(cfg config.Auth) (*TokenService, error) {
	if len(cfg.JWTSecret) < 16 {
		return nil, errors.New("JWT secret must be at least 16 characters")
	}
	return &TokenService{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        time.Now,
	}, nil
}

// IssuePair creates a fresh access and refresh token for the user.
func (s *TokenService) IssuePair(userID uint) (TokenPair, error) {
	access, err := s.sign(userID, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(userID, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *TokenService) Refresh(refreshToken string) (string, error) {
	userID, err := s.validate(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return s.sign(userID, TokenTypeAccess, s.accessTTL)
}

// ValidateAccess returns the user id carried by an access token.
func (s *TokenService) ValidateAccess(accessToken string) (uint, error) {
	return s.validate(accessToken, TokenTypeAccess)
}

func (s *TokenService) sign(userID uint, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	c := claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    tokenIssuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) validate(tokenStr, tokenType string) (uint, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, apperror.Unauthorized("Token is expired")
		}
		return 0, apperror.Unauthorized("Token is invalid")
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.TokenType != tokenType {
		return 0, apperror.Unauthorized("Token is invalid")
	}

	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Unauthorized("Token has no user")
	}
	return uint(id), nil
}

// PasswordService hashes and checks passwords with bcrypt.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: bcrypt.DefaultCost}
}

// NewPasswordServiceWithCost is for tests, which use bcrypt.MinCost.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

func (p *PasswordService) Hash(plaintext string) (string, error) {
	// bcrypt ignores everything past 72 bytes
	if len(plaintext) > 72 {
		return "", apperror.ValidationFailed("password", "Password must be 72 bytes or fewer")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hashed), nil
}

// Matches reports whether plaintext is the password behind hash.
func (p *PasswordService) Matches(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
