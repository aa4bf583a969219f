package staff

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/internal/platform/auth"
	"github.com/hivcare/hivcare/pkg/pagination"
)

type Service struct {
	repo       Repository
	bcryptCost int

	// decoy is compared against when a login has no stored hash, so unknown
	// codes cost the same bcrypt work as wrong passwords.
	decoyOnce sync.Once
	decoy     string
}

// NewService hashes passwords at bcryptCost; zero selects bcrypt's default.
func NewService(repo Repository, bcryptCost int) *Service {
	return &Service{repo: repo, bcryptCost: bcryptCost}
}

func (s *Service) Create(ctx context.Context, in *CreateInput) (*Staff, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password, s.bcryptCost)
		if err != nil {
			return nil, apperr.Internal("Failed to create staff", err)
		}
		in.PasswordHash = hash
	}
	return s.repo.Create(ctx, in)
}

func (s *Service) Get(ctx context.Context, id int64) (*Staff, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, p *Patch) (*Staff, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Staff, int, error) {
	return s.repo.List(ctx, f, pg)
}

func (s *Service) Roles(ctx context.Context, staffID int64) ([]Role, error) {
	return s.repo.Roles(ctx, staffID)
}

// AssignRoles replaces the staff member's roles with exactly in.RoleIDs.
func (s *Service) AssignRoles(ctx context.Context, staffID int64, in *RolesInput) (*Staff, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceRoles(ctx, staffID, in.RoleIDs); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, staffID)
}

func (s *Service) AllRoles(ctx context.Context) ([]Role, error) {
	return s.repo.AllRoles(ctx)
}

// FindPrincipal loads the live principal for a token's staff id.
func (s *Service) FindPrincipal(ctx context.Context, staffID int64) (*auth.Principal, error) {
	st, err := s.repo.GetByID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	return st.Principal(), nil
}

var errBadCredentials = apperr.Unauthenticated("Invalid staff code or password")

// Authenticate checks a staff code and password. Unknown codes, staff without
// a password and wrong passwords fail the same way and do the same bcrypt
// work. Inactive accounts are Forbidden, but only once the password matched.
func (s *Service) Authenticate(ctx context.Context, staffCode, password string) (*Staff, error) {
	staffCode = strings.TrimSpace(staffCode)
	if staffCode == "" || password == "" {
		return nil, apperr.InvalidInput("Staff code and password are required")
	}
	cred, err := s.repo.CredentialsByCode(ctx, staffCode)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if cred == nil || cred.PasswordHash == "" {
		_ = auth.VerifyPassword(s.decoyHash(), password)
		return nil, errBadCredentials
	}
	if err := auth.VerifyPassword(cred.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, errBadCredentials
		}
		return nil, apperr.Internal("Login failed", err)
	}
	if !cred.Staff.Active {
		return nil, apperr.Forbidden("Account is inactive. Contact administrator.", nil)
	}
	return cred.Staff, nil
}

func (s *Service) decoyHash() string {
	s.decoyOnce.Do(func() {
		s.decoy, _ = auth.HashPassword("decoy-password-never-issued", s.bcryptCost)
	})
	return s.decoy
}

// ChangePassword verifies current before storing a hash of next.
func (s *Service) ChangePassword(ctx context.Context, staffID int64, current, next string) error {
	if current == "" || next == "" {
		return apperr.InvalidInput("Current password and new password are required")
	}
	hash, err := s.repo.PasswordHash(ctx, staffID)
	if err != nil {
		return err
	}
	if err := auth.VerifyPassword(hash, current); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperr.Unauthenticated("Current password is incorrect")
		}
		return apperr.Internal("Failed to change password", err)
	}
	return s.SetPassword(ctx, staffID, next)
}

// SetPassword stores a new password without checking the old one. It backs
// the administrative CLI.
func (s *Service) SetPassword(ctx context.Context, staffID int64, plain string) error {
	if len(plain) < auth.MinPasswordLength {
		return apperr.InvalidInput("New password must be at least 6 characters long")
	}
	hash, err := auth.HashPassword(plain, s.bcryptCost)
	if err != nil {
		return apperr.Internal("Failed to change password", err)
	}
	return s.repo.SetPasswordHash(ctx, staffID, hash)
}
