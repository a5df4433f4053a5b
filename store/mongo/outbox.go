package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	conduit "github.com/xraph/conduit"
	"github.com/xraph/conduit/id"
	"github.com/xraph/conduit/outbox"
)

// Enqueue creates a pending outbox entry.
func (s *Store) Enqueue(ctx context.Context, e *outbox.Entry) error {
	m := toEntryModel(e)

	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("conduit/mongo: enqueue: %w", err)
	}

	return nil
}

// EnqueueBatch creates multiple entries in one insert (fan-out).
func (s *Store) EnqueueBatch(ctx context.Context, es []*outbox.Entry) error {
	if len(es) == 0 {
		return nil
	}

	models := make([]entryModel, len(es))
	for i, e := range es {
		models[i] = *toEntryModel(e)
	}

	_, err := s.mdb.NewInsert(&models).Exec(ctx)
	if err != nil {
		return fmt.Errorf("conduit/mongo: enqueue batch: %w", err)
	}

	return nil
}

// Dequeue fetches due pending entries. FindOneAndUpdate pushes
// next_attempt_at one minute ahead as an atomic claim, so concurrent
// workers never pick the same entry. The worker's UpdateEntry call
// records the real outcome and schedule.
func (s *Store) Dequeue(ctx context.Context, limit int) ([]*outbox.Entry, error) {
	result := make([]*outbox.Entry, 0, limit)
	t := now()
	col := s.mdb.Collection(colOutbox)

	for range limit {
		filter := bson.M{
			"status":          string(outbox.StatusPending),
			"next_attempt_at": bson.M{"$lte": t},
		}

		update := bson.M{
			"$set": bson.M{
				"next_attempt_at": t.Add(time.Minute),
				"updated_at":      t,
			},
		}

		opts := options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetSort(bson.D{{Key: "next_attempt_at", Value: 1}})

		var m entryModel

		err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&m)
		if err != nil {
			if errors.Is(err, mongod.ErrNoDocuments) {
				break
			}

			return nil, fmt.Errorf("conduit/mongo: dequeue: %w", err)
		}

		e, err := fromEntryModel(&m)
		if err != nil {
			return nil, err
		}

		result = append(result, e)
	}

	return result, nil
}

// UpdateEntry modifies an outbox entry.
func (s *Store) UpdateEntry(ctx context.Context, e *outbox.Entry) error {
	m := toEntryModel(e)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("conduit/mongo: update entry: %w", err)
	}

	if res.MatchedCount() == 0 {
		return conduit.ErrEntryNotFound
	}

	return nil
}

// GetEntry returns an outbox entry by ID.
func (s *Store) GetEntry(ctx context.Context, entryID id.ID) (*outbox.Entry, error) {
	var m entryModel

	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": entryID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, conduit.ErrEntryNotFound
		}

		return nil, fmt.Errorf("conduit/mongo: get entry: %w", err)
	}

	return fromEntryModel(&m)
}

// ListByEndpoint returns delivery history for an endpoint.
func (s *Store) ListByEndpoint(ctx context.Context, epID id.ID, opts outbox.ListOpts) ([]*outbox.Entry, error) {
	var models []entryModel

	filter := bson.M{"endpoint_id": epID.String()}
	if opts.Status != nil {
		filter["status"] = string(*opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}

	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("conduit/mongo: list by endpoint: %w", err)
	}

	result := make([]*outbox.Entry, 0, len(models))

	for i := range models {
		e, err := fromEntryModel(&models[i])
		if err != nil {
			return nil, err
		}

		result = append(result, e)
	}

	return result, nil
}

// CountPending returns the number of entries awaiting attempt.
func (s *Store) CountPending(ctx context.Context) (int64, error) {
	count, err := s.mdb.NewFind((*entryModel)(nil)).
		Filter(bson.M{"status": string(outbox.StatusPending)}).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("conduit/mongo: count pending: %w", err)
	}

	return count, nil
}
