package cag

import (
	"context"

	"github.com/hivcare/hivcare/pkg/pagination"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*CAG, error)
	List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*CAG, int, error)
	Members(ctx context.Context, cagID int64) ([]*Member, error)
	Rotations(ctx context.Context, cagID int64, pg pagination.Params) ([]*Rotation, int, error)
	Statistics(ctx context.Context, cagID int64) (*Statistics, error)

	AddMember(ctx context.Context, cagID int64, in *AddMemberInput) error
	RemoveMember(ctx context.Context, cagID int64, in *RemoveMemberInput) error
	RecordRotation(ctx context.Context, cagID int64, in *RotationInput) error
	SetCoordinator(ctx context.Context, cagID, patientID int64) error
}
