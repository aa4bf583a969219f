package cag

import (
	"context"

	"github.com/hivcare/hivcare/pkg/pagination"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*CAG, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*CAG, int, error) {
	return s.repo.List(ctx, f, pg)
}

func (s *Service) Members(ctx context.Context, cagID int64) ([]*Member, error) {
	return s.repo.Members(ctx, cagID)
}

func (s *Service) Rotations(ctx context.Context, cagID int64, pg pagination.Params) ([]*Rotation, int, error) {
	return s.repo.Rotations(ctx, cagID, pg)
}

func (s *Service) Statistics(ctx context.Context, cagID int64) (*Statistics, error) {
	return s.repo.Statistics(ctx, cagID)
}

// AddMember enrolls a patient and returns the group's active members.
func (s *Service) AddMember(ctx context.Context, cagID int64, in *AddMemberInput) (*MembersResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.AddMember(ctx, cagID, in); err != nil {
		return nil, err
	}
	members, err := s.repo.Members(ctx, cagID)
	if err != nil {
		return nil, err
	}
	return &MembersResult{Message: "Patient added to CAG successfully", Members: members}, nil
}

func (s *Service) RemoveMember(ctx context.Context, cagID int64, in *RemoveMemberInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return s.repo.RemoveMember(ctx, cagID, in)
}

func (s *Service) RecordRotation(ctx context.Context, cagID int64, in *RotationInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return s.repo.RecordRotation(ctx, cagID, in)
}

func (s *Service) SetCoordinator(ctx context.Context, cagID int64, in *CoordinatorInput) (*CoordinatorResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.SetCoordinator(ctx, cagID, in.PatientID); err != nil {
		return nil, err
	}
	g, err := s.repo.GetByID(ctx, cagID)
	if err != nil {
		return nil, err
	}
	return &CoordinatorResult{Message: "CAG coordinator set successfully", CAG: g}, nil
}
