package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"medlearn-service/internal/domain"
)

// AccountStore abstracts user and college persistence.
type AccountStore interface {
	CreateUser(ctx context.Context, u domain.User) error
	GetUser(ctx context.Context, id string) (domain.User, error)
	// GetUserByPhone returns nil when no account holds the phone.
	GetUserByPhone(ctx context.Context, phone string) (*domain.User, error)
	SetUserVerified(ctx context.Context, id string, verified bool) error
	ListColleges(ctx context.Context) ([]domain.College, error)
	CollegeExists(ctx context.Context, id string) (bool, error)
}

// OTPVerifier is the SMS verification collaborator (Twilio Verify in
// production). Statuses are the provider's; "approved" means the code
// matched.
type OTPVerifier interface {
	StartVerification(ctx context.Context, phone string) (string, error)
	CheckVerification(ctx context.Context, phone, code string) (string, error)
}

// StatusApproved is the verification status that flips a user to verified.
const StatusApproved = "approved"

// AccountService contains registration, status, and OTP use cases.
type AccountService struct {
	store    AccountStore
	verifier OTPVerifier
	now      func() time.Time
}

func NewAccountService(store AccountStore, verifier OTPVerifier) *AccountService {
	return &AccountService{store: store, verifier: verifier, now: time.Now}
}

// Register creates an unverified account. Phones are unique; the chosen
// college must exist.
func (s *AccountService) Register(ctx context.Context, phone, name, collegeID string) (domain.User, error) {
	phone = strings.TrimSpace(phone)
	name = strings.TrimSpace(name)
	if !validPhone(phone) {
		return domain.User{}, domain.Validationf("phone must be E.164 (e.g. +919876543210)")
	}
	if name == "" {
		return domain.User{}, domain.Validationf("name required")
	}
	ok, err := s.store.CollegeExists(ctx, collegeID)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, domain.ErrCollegeNotFound
	}
	existing, err := s.store.GetUserByPhone(ctx, phone)
	if err != nil {
		return domain.User{}, err
	}
	if existing != nil {
		return domain.User{}, domain.ErrPhoneTaken
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Phone:     phone,
		Name:      name,
		CollegeID: collegeID,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Status returns the user's current record, including verification state.
func (s *AccountService) Status(ctx context.Context, userID string) (domain.User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *AccountService) Colleges(ctx context.Context) ([]domain.College, error) {
	return s.store.ListColleges(ctx)
}

// StartOTP kicks off SMS verification for a registered phone.
func (s *AccountService) StartOTP(ctx context.Context, phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if !validPhone(phone) {
		return "", domain.Validationf("phone must be E.164")
	}
	if s.verifier == nil {
		return "", errors.New("sms verification not configured")
	}
	user, err := s.store.GetUserByPhone(ctx, phone)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", domain.ErrUserNotFound
	}
	return s.verifier.StartVerification(ctx, phone)
}

// CheckOTP verifies a code; an approved check marks the account verified.
func (s *AccountService) CheckOTP(ctx context.Context, phone, code string) (bool, error) {
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if !validPhone(phone) {
		return false, domain.Validationf("phone must be E.164")
	}
	if code == "" {
		return false, domain.Validationf("code required")
	}
	if s.verifier == nil {
		return false, errors.New("sms verification not configured")
	}
	user, err := s.store.GetUserByPhone(ctx, phone)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, domain.ErrUserNotFound
	}

	status, err := s.verifier.CheckVerification(ctx, phone, code)
	if err != nil {
		return false, err
	}
	if status != StatusApproved {
		return false, nil
	}
	if err := s.store.SetUserVerified(ctx, user.ID, true); err != nil {
		return false, err
	}
	return true, nil
}

func validPhone(phone string) bool {
	if len(phone) < 8 || len(phone) > 16 || phone[0] != '+' {
		return false
	}
	for _, c := range phone[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
