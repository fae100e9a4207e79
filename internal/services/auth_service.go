package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/sms"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpTTL            = 5 * time.Minute
	defaultTokenTTL   = 30 * 24 * time.Hour
	defaultBcryptCost = 12
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

var (
	nonDigits   = regexp.MustCompile(`\D`)
	indianPhone = regexp.MustCompile(`^[6-9]\d{9}$`)
)

const invalidPhoneMessage = "Please provide a valid 10-digit Indian phone number"

// Request shapes of the auth operations. Phones are checked with the "inphone" rule.
type signupRequest struct {
	Phone    string `validate:"required,inphone"`
	Password string `validate:"required,min=6"`
	Name     string `validate:"required,min=2"`
}

type phoneOTPRequest struct {
	Phone string `validate:"required,inphone"`
	OTP   string `validate:"required"`
}

type loginRequest struct {
	Phone    string `validate:"required,inphone"`
	Password string `validate:"required"`
}

type phoneRequest struct {
	Phone string `validate:"required,inphone"`
}

type resetPasswordRequest struct {
	Phone       string `validate:"required"`
	OTP         string `validate:"required"`
	NewPassword string `validate:"required,min=6"`
}

type changePasswordRequest struct {
	CurrentPassword string `validate:"required"`
	NewPassword     string `validate:"required,min=6"`
}

type profileRequest struct {
	Phone string `validate:"omitempty,inphone"`
}

var (
	signupMessages = fieldMessages{
		"required":      "Phone, name, and password are required",
		"Phone.inphone": invalidPhoneMessage,
		"Password.min":  "Password must be at least 6 characters",
		"Name.min":      "Name must be at least 2 characters",
	}
	phoneOTPMessages = fieldMessages{"required": "Phone and OTP are required", "Phone.inphone": invalidPhoneMessage}
	loginMessages    = fieldMessages{"required": "Phone and password are required", "Phone.inphone": invalidPhoneMessage}
	phoneMessages    = fieldMessages{"required": "Phone number is required", "Phone.inphone": invalidPhoneMessage}
	resetMessages    = fieldMessages{
		"required":        "Phone, OTP and new password are required",
		"NewPassword.min": "Password must be at least 6 characters",
	}
	changePasswordMessages = fieldMessages{
		"required":        "Current and new password are required",
		"NewPassword.min": "New password must be at least 6 characters",
	}
	profileMessages = fieldMessages{"Phone.inphone": invalidPhoneMessage}
)

// NormalizePhone strips everything but digits.
func NormalizePhone(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}

// ValidPhone reports whether phone is a 10-digit Indian mobile number.
func ValidPhone(phone string) bool {
	return indianPhone.MatchString(NormalizePhone(phone))
}

// AuthConfig tunes token issuance and OTP delivery.
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
	// ExposeOTP returns the code to the caller when SMS delivery fails. Development only.
	ExposeOTP bool
}

// AuthResult is a signed-in user and their session token.
type AuthResult struct {
	User  *models.User
	Token string
}

// OTPDispatch describes what happened to a generated OTP.
type OTPDispatch struct {
	Delivered bool
	// OTP and Reason are only set when delivery failed and ExposeOTP is on.
	OTP    string
	Reason string
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	sender     sms.Sender
	jwtSecret  []byte
	tokenTTL   time.Duration
	bcryptCost int
	exposeOTP  bool
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, sender sms.Sender, cfg AuthConfig, logger *zap.Logger) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaultBcryptCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:   userRepo,
		sender:     sender,
		jwtSecret:  []byte(cfg.JWTSecret),
		tokenTTL:   cfg.TokenTTL,
		bcryptCost: cfg.BcryptCost,
		exposeOTP:  cfg.ExposeOTP,
		logger:     logger,
		now:        time.Now,
	}
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", 100000+n.Int64()), nil
}

// SendSignupOTP stores a pending, unverified account and texts it a one-time code.
// Re-requesting overwrites the pending account.
func (s *AuthService) SendSignupOTP(ctx context.Context, phone, name, password string) (*OTPDispatch, error) {
	name = strings.TrimSpace(name)
	req := signupRequest{Phone: phone, Password: password, Name: name}
	if err := checkStruct(req, signupMessages, "Invalid signup request"); err != nil {
		return nil, err
	}
	phone = NormalizePhone(phone)

	user, err := s.userRepo.GetByPhone(ctx, phone)
	switch {
	case err == nil && user.IsPhoneVerified:
		return nil, newError(ErrConflict, "Phone number already registered")
	case err == nil:
	case errors.Is(err, repositories.ErrNotFound):
		user = nil
	default:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}
	otp, err := generateOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate otp: %w", err)
	}
	expiry := s.now().Add(otpTTL)

	if user == nil {
		user = &models.User{Phone: phone}
	}
	user.Name = name
	user.Password = hash
	user.IsPhoneVerified = false
	user.OTP = otp
	user.OTPExpiry = &expiry

	if user.ID == "" {
		err = s.userRepo.Create(ctx, user)
	} else {
		err = s.userRepo.Update(ctx, user)
	}
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, newError(ErrConflict, "Phone number already registered")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save signup request: %w", err)
	}

	return s.dispatchOTP(ctx, phone, otp, "signup")
}

// VerifySignupOTP completes a pending signup and signs the user in.
func (s *AuthService) VerifySignupOTP(ctx context.Context, phone, otp string) (*AuthResult, error) {
	if err := checkStruct(phoneOTPRequest{Phone: phone, OTP: otp}, phoneOTPMessages, "Invalid OTP request"); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByPhone(ctx, NormalizePhone(phone))
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && user.IsPhoneVerified) {
		return nil, newError(ErrNotFound, "No signup request found or OTP expired. Please start signup again.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.OTP == "" || user.OTPExpiry == nil {
		return nil, newError(ErrValidation, "No OTP requested or OTP expired")
	}
	if err := s.checkOTP(user, otp); err != nil {
		return nil, err
	}

	user.IsPhoneVerified = true
	user.ClearOTP()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("signup completed", zap.String("user_id", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates a verified user by phone and password.
func (s *AuthService) Login(ctx context.Context, phone, password string) (*AuthResult, error) {
	if err := checkStruct(loginRequest{Phone: phone, Password: password}, loginMessages, "Invalid login request"); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByPhone(ctx, NormalizePhone(phone))
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && !user.IsPhoneVerified) {
		return nil, newError(ErrUnauthorized, "Invalid phone number or password, or phone not verified")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, newError(ErrUnauthorized, "Invalid phone number or password")
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// ForgotPassword texts a reset code to a registered phone. The result does not
// reveal whether the phone is registered.
func (s *AuthService) ForgotPassword(ctx context.Context, phone string) (*OTPDispatch, error) {
	if err := checkStruct(phoneRequest{Phone: phone}, phoneMessages, invalidPhoneMessage); err != nil {
		return nil, err
	}
	phone = NormalizePhone(phone)

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if errors.Is(err, repositories.ErrNotFound) {
		return &OTPDispatch{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate otp: %w", err)
	}
	expiry := s.now().Add(otpTTL)
	user.OTP = otp
	user.OTPExpiry = &expiry
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to store reset otp: %w", err)
	}

	return s.dispatchOTP(ctx, phone, otp, "password reset")
}

// VerifyResetOTP checks a reset code without consuming it.
func (s *AuthService) VerifyResetOTP(ctx context.Context, phone, otp string) error {
	if err := checkStruct(phoneOTPRequest{Phone: phone, OTP: otp}, phoneOTPMessages, "Invalid OTP request"); err != nil {
		return err
	}
	user, err := s.userByPhone(ctx, phone)
	if err != nil {
		return err
	}
	return s.checkOTP(user, otp)
}

// ResetPassword consumes a reset code and replaces the password.
func (s *AuthService) ResetPassword(ctx context.Context, phone, otp, newPassword string) error {
	req := resetPasswordRequest{Phone: phone, OTP: otp, NewPassword: newPassword}
	if err := checkStruct(req, resetMessages, "Invalid password reset request"); err != nil {
		return err
	}
	user, err := s.userByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if err := s.checkOTP(user, otp); err != nil {
		return err
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = hash
	user.ClearOTP()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	s.logger.Info("password reset", zap.String("user_id", user.ID))
	return nil
}

// GetProfile returns the user behind a session.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the name and/or phone. Empty values are left as they are.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, name, phone string) (*models.User, error) {
	if err := checkStruct(profileRequest{Phone: phone}, profileMessages, invalidPhoneMessage); err != nil {
		return nil, err
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		user.Name = name
	}
	if phone != "" {
		phone = NormalizePhone(phone)
		other, err := s.userRepo.GetByPhone(ctx, phone)
		if err == nil && other.ID != user.ID {
			return nil, newError(ErrConflict, "Phone number already in use")
		}
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up phone: %w", err)
		}
		user.Phone = phone
	}

	err = s.userRepo.Update(ctx, user)
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, newError(ErrConflict, "Phone number already in use")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	req := changePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword}
	if err := checkStruct(req, changePasswordMessages, "Invalid password change request"); err != nil {
		return err
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return newError(ErrValidation, "Current password is incorrect")
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = hash
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

// CheckPhone reports whether phone is still free to register.
func (s *AuthService) CheckPhone(ctx context.Context, phone string) (bool, error) {
	if err := checkStruct(phoneRequest{Phone: phone}, phoneMessages, invalidPhoneMessage); err != nil {
		return false, err
	}
	_, err := s.userRepo.GetByPhone(ctx, NormalizePhone(phone))
	if errors.Is(err, repositories.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check phone availability: %w", err)
	}
	return false, nil
}

// GenerateToken signs a session token for userID.
func (s *AuthService) GenerateToken(userID string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
// Expired tokens fail with ErrTokenExpired, anything else with ErrTokenInvalid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if id, _ := claims["user_id"].(string); id == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// AuthenticateToken validates a token and loads its user.
func (s *AuthService) AuthenticateToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	userID, _ := claims["user_id"].(string)
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return user, nil
}

func (s *AuthService) userByPhone(ctx context.Context, phone string) (*models.User, error) {
	user, err := s.userRepo.GetByPhone(ctx, NormalizePhone(phone))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, nil
}

func (s *AuthService) checkOTP(user *models.User, otp string) error {
	if user.OTP == "" || user.OTP != otp {
		return newError(ErrValidation, "Invalid OTP")
	}
	if !user.OTPMatches(otp, s.now()) {
		return newError(ErrValidation, "OTP expired. Please request a new OTP.")
	}
	return nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *AuthService) dispatchOTP(ctx context.Context, phone, otp, purpose string) (*OTPDispatch, error) {
	err := s.sender.Send(ctx, phone, sms.OTPMessage(purpose, otp))
	if err == nil {
		return &OTPDispatch{Delivered: true}, nil
	}

	s.logger.Warn("otp delivery failed", zap.String("purpose", purpose), zap.Error(err))
	if s.exposeOTP {
		return &OTPDispatch{OTP: otp, Reason: err.Error()}, nil
	}
	return nil, fmt.Errorf("failed to send OTP: %w", err)
}
