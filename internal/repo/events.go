package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitspace/backend-fitspace/internal/events"
)

// EventRepo appends domain events to the outbox table.
type EventRepo struct {
	Pool *pgxpool.Pool
}

var _ events.EventStore = EventRepo{}

func (r EventRepo) Insert(ctx context.Context, event events.DomainEvent) (events.DomainEvent, error) {
	id, err := uuidValue(event.ID)
	if err != nil {
		return events.DomainEvent{}, err
	}
	const insert = `
INSERT INTO domain_events (id, topic, aggregate_id, payload, occurred_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err = r.Pool.Exec(ctx, insert, id, event.Topic, event.AggregateID, []byte(event.Payload), event.OccurredAt)
	if err != nil {
		return events.DomainEvent{}, err
	}
	return event, nil
}
