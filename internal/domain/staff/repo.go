package staff

import (
	"context"

	"github.com/hivcare/hivcare/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, in *CreateInput) (*Staff, error)
	GetByID(ctx context.Context, id int64) (*Staff, error)
	Update(ctx context.Context, id int64, p *Patch) (*Staff, error)
	List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Staff, int, error)

	Roles(ctx context.Context, staffID int64) ([]Role, error)
	ReplaceRoles(ctx context.Context, staffID int64, roleIDs []int) error
	AllRoles(ctx context.Context) ([]Role, error)

	CredentialsByCode(ctx context.Context, staffCode string) (*Credentials, error)
	PasswordHash(ctx context.Context, staffID int64) (string, error)
	SetPasswordHash(ctx context.Context, staffID int64, hash string) error
}
