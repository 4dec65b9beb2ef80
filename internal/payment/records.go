package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"courtbook/internal/storage"
)

// DefaultKey is the store key payment records live under.
const DefaultKey = "payments"

// RecordStore keeps payment records as one JSON array under a store key.
type RecordStore struct {
	store storage.Store
	key   string
}

func NewRecordStore(store storage.Store, key string) *RecordStore {
	if key == "" {
		key = DefaultKey
	}
	return &RecordStore{store: store, key: key}
}

func (s *RecordStore) load(ctx context.Context) ([]Record, error) {
	data, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	return decodeRecords(data, ok)
}

func decodeRecords(data []byte, ok bool) ([]Record, error) {
	if !ok || len(data) == 0 {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode payments: %w", err)
	}
	return records, nil
}

func (s *RecordStore) Append(ctx context.Context, rec Record) error {
	err := s.store.Update(ctx, s.key, func(current []byte, ok bool) ([]byte, error) {
		records, err := decodeRecords(current, ok)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(append(records, rec))
		if err != nil {
			return nil, fmt.Errorf("encode payments: %w", err)
		}
		return data, nil
	})
	if err != nil {
		return fmt.Errorf("save payments: %w", err)
	}
	return nil
}

func (s *RecordStore) All(ctx context.Context) ([]Record, error) {
	return s.load(ctx)
}

// ForBooking returns the records of one booking, oldest first.
func (s *RecordStore) ForBooking(ctx context.Context, bookingID string) ([]Record, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, r := range all {
		if r.BookingID == bookingID {
			out = append(out, r)
		}
	}
	return out, nil
}
