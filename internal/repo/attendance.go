package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitspace/backend-fitspace/internal/attendance"
)

// AttendanceRepo persists facility visits.
type AttendanceRepo struct {
	Pool *pgxpool.Pool
}

var _ attendance.Store = AttendanceRepo{}

func (r AttendanceRepo) Create(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	id, err := uuidValue(att.ID)
	if err != nil {
		return attendance.Attendance{}, err
	}
	aID, err := uuidValue(att.AccountID)
	if err != nil {
		return attendance.Attendance{}, err
	}
	fID, err := uuidValue(att.FacilityID)
	if err != nil {
		return attendance.Attendance{}, err
	}
	const insert = `
INSERT INTO attendances (id, account_id, facility_id, visited_at)
VALUES ($1, $2, $3, $4)`
	if _, err := r.Pool.Exec(ctx, insert, id, aID, fID, att.VisitedAt); err != nil {
		return attendance.Attendance{}, err
	}
	return att, nil
}

func (r AttendanceRepo) ListByAccount(ctx context.Context, accountID string, limit int32) ([]attendance.Attendance, error) {
	aID, err := uuidValue(accountID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.Pool.Query(ctx,
		`SELECT id, account_id, facility_id, visited_at
FROM attendances
WHERE account_id = $1
ORDER BY visited_at DESC
LIMIT $2`, aID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var visits []attendance.Attendance
	for rows.Next() {
		var (
			att       attendance.Attendance
			id, acc   pgtype.UUID
			fac       pgtype.UUID
			visitedAt pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &acc, &fac, &visitedAt); err != nil {
			return nil, err
		}
		att.ID = uuidString(id)
		att.AccountID = uuidString(acc)
		att.FacilityID = uuidString(fac)
		att.VisitedAt = visitedAt.Time
		visits = append(visits, att)
	}
	return visits, rows.Err()
}
