package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fitspace/backend-fitspace/internal/common"
	"github.com/fitspace/backend-fitspace/internal/obs"
)

// Attendance records one facility visit by a member.
type Attendance struct {
	ID         string
	AccountID  string
	FacilityID string
	VisitedAt  time.Time
}

// Store persists attendance rows.
type Store interface {
	Create(ctx context.Context, att Attendance) (Attendance, error)
	ListByAccount(ctx context.Context, accountID string, limit int32) ([]Attendance, error)
}

// AccessChecker is the subscription predicate gating attendance.
type AccessChecker interface {
	IsActive(ctx context.Context, facilityID, accountID string) (bool, error)
}

// Service records facility visits for members holding an active grant.
type Service struct {
	Store  Store
	Access AccessChecker
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Record persists a visit after confirming the member's subscription admits
// them to the facility right now.
func (s *Service) Record(ctx context.Context, accountID, facilityID string) (Attendance, error) {
	if s == nil || s.Store == nil || s.Access == nil {
		return Attendance{}, errors.New("attendance service not configured")
	}
	active, err := s.Access.IsActive(ctx, facilityID, accountID)
	if err != nil {
		return Attendance{}, err
	}
	if !active {
		if obs.AttendanceDeniedTotal != nil {
			obs.AttendanceDeniedTotal.Inc()
		}
		return Attendance{}, common.Forbidden("member must subscribe to this facility's package", nil)
	}
	att := Attendance{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		FacilityID: facilityID,
		VisitedAt:  s.now(),
	}
	created, err := s.Store.Create(ctx, att)
	if err != nil {
		return Attendance{}, common.Internal("persist attendance", err)
	}
	return created, nil
}

// History returns the member's most recent visits.
func (s *Service) History(ctx context.Context, accountID string, limit int32) ([]Attendance, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("attendance service not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	visits, err := s.Store.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, common.Internal("load attendance history", err)
	}
	return visits, nil
}
