package users

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/congo-pay/mockpay/internal/apperr"
	"github.com/congo-pay/mockpay/internal/auth"
)

const (
	phoneLength = 10
	pinLength   = 4

	msgPhoneLength        = "Phone number must be 10 digits"
	msgPhoneTaken         = "Phone number already used"
	msgPasswordLength     = "Password must be 4 characters"
	msgInvalidCredentials = "Incorrect phone or password"
	msgUserNotFound       = "User not found"
)

// Service is the user directory: signup, credential checks and CRUD.
type Service struct {
	repo   Repository
	hasher *auth.Hasher
}

// NewService creates a new user directory service.
func NewService(repo Repository, hasher *auth.Hasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// Signup registers a user and stores only the password digest.
//
// The phone uniqueness check and the insert are separate statements; two
// concurrent signups can both pass the check, in which case the storage unique
// constraint rejects the loser with the same Conflict error.
func (s *Service) Signup(ctx context.Context, in SignupInput) (User, error) {
	if err := validatePhone(in.Phone); err != nil {
		return User{}, err
	}
	if utf8.RuneCountInString(in.Password) != pinLength {
		return User{}, apperr.Validation(msgPasswordLength)
	}

	if _, err := s.repo.FindByPhone(ctx, in.Phone); err == nil {
		return User{}, apperr.Conflict(msgPhoneTaken)
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.New().String(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		PasswordHash: digest,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrPhoneTaken) {
			return User{}, apperr.Conflict(msgPhoneTaken)
		}
		return User{}, err
	}
	return user, nil
}

// Authenticate checks a phone/password pair. Unknown phones and wrong
// passwords produce the same InvalidCredentials error.
func (s *Service) Authenticate(ctx context.Context, phone, password string) (User, error) {
	user, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, apperr.InvalidCredentials(msgInvalidCredentials)
		}
		return User{}, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return User{}, apperr.InvalidCredentials(msgInvalidCredentials)
	}

	// Opportunistic upgrade to the configured cost; a failure keeps the old digest.
	if s.hasher.NeedsRehash(user.PasswordHash) {
		if digest, err := s.hasher.Hash(password); err == nil {
			upgraded := user
			upgraded.PasswordHash = digest
			if err := s.repo.Update(ctx, upgraded); err == nil {
				user = upgraded
			}
		}
	}
	return user, nil
}

// List returns every user. Any authenticated caller sees the whole directory.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns the user with id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, apperr.NotFound(msgUserNotFound)
		}
		return User{}, err
	}
	return user, nil
}

// Update applies the non-nil fields of patch. A supplied password is always
// re-hashed before it is stored.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}

	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Phone != nil && *patch.Phone != user.Phone {
		if err := validatePhone(*patch.Phone); err != nil {
			return User{}, err
		}
		if other, err := s.repo.FindByPhone(ctx, *patch.Phone); err == nil && other.ID != user.ID {
			return User{}, apperr.Conflict(msgPhoneTaken)
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return User{}, err
		}
		user.Phone = *patch.Phone
	}
	if patch.Password != nil {
		if utf8.RuneCountInString(*patch.Password) != pinLength {
			return User{}, apperr.Validation(msgPasswordLength)
		}
		digest, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return User{}, err
		}
		user.PasswordHash = digest
	}

	if err := s.repo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return User{}, apperr.NotFound(msgUserNotFound)
		case errors.Is(err, ErrPhoneTaken):
			return User{}, apperr.Conflict(msgPhoneTaken)
		default:
			return User{}, err
		}
	}
	return user, nil
}

// Delete hard-removes the user.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return err
	}
	return nil
}

func validatePhone(phone string) error {
	if utf8.RuneCountInString(phone) != phoneLength {
		return apperr.Validation(msgPhoneLength)
	}
	return nil
}
