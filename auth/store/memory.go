// SPDX-License-Identifier: ice License 1.0

package store

import (
	"context"
	"slices"
)

func NewMemory() Backend {
	return &memoryBackend{records: make(map[string]*memoryRecord)}
}

func (b *memoryBackend) For(clientID string) Store {
	return &memoryStore{backend: b, clientID: clientID}
}

func (*memoryBackend) Ping(context.Context) error {
	return nil
}

func (b *memoryBackend) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	clear(b.records)

	return nil
}

func (s *memoryStore) Save(ctx context.Context, rawToken string) error {
	return s.setField(ctx, tokenField, rawToken)
}

func (s *memoryStore) Load(ctx context.Context) (string, error) {
	return s.field(ctx, tokenField)
}

func (s *memoryStore) SetUsername(ctx context.Context, username string) error {
	return s.setField(ctx, usernameField, username)
}

func (s *memoryStore) Username(ctx context.Context) (string, error) {
	return s.field(ctx, usernameField)
}

func (s *memoryStore) SetTenant(ctx context.Context, tenant string) error {
	return s.setField(ctx, tenantField, tenant)
}

func (s *memoryStore) Tenant(ctx context.Context) (string, error) {
	return s.field(ctx, tenantField)
}

func (s *memoryStore) Clear(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err() //nolint:wrapcheck // Not needed.
	}
	s.backend.mx.Lock()
	defer s.backend.mx.Unlock()
	delete(s.backend.records, s.clientID)

	return nil
}

func (s *memoryStore) SaveSnapshot(ctx context.Context, snapshot []byte) error {
	if ctx.Err() != nil {
		return ctx.Err() //nolint:wrapcheck // Not needed.
	}
	s.backend.mx.Lock()
	defer s.backend.mx.Unlock()
	s.record().snapshot = slices.Clone(snapshot)

	return nil
}

func (s *memoryStore) LoadSnapshot(ctx context.Context) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err() //nolint:wrapcheck // Not needed.
	}
	s.backend.mx.RLock()
	defer s.backend.mx.RUnlock()
	if rec, found := s.backend.records[s.clientID]; found && rec.snapshot != nil {
		return slices.Clone(rec.snapshot), nil
	}

	return nil, ErrNotFound
}

func (s *memoryStore) setField(ctx context.Context, name, value string) error {
	if ctx.Err() != nil {
		return ctx.Err() //nolint:wrapcheck // Not needed.
	}
	s.backend.mx.Lock()
	defer s.backend.mx.Unlock()
	s.record().fields[name] = value

	return nil
}

func (s *memoryStore) field(ctx context.Context, name string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err() //nolint:wrapcheck // Not needed.
	}
	s.backend.mx.RLock()
	defer s.backend.mx.RUnlock()
	if rec, found := s.backend.records[s.clientID]; found {
		if val, hasField := rec.fields[name]; hasField {
			return val, nil
		}
	}

	return "", ErrNotFound
}

// record must be called while holding the write lock.
func (s *memoryStore) record() *memoryRecord {
	rec, found := s.backend.records[s.clientID]
	if !found {
		rec = &memoryRecord{fields: make(map[string]string, 3)} //nolint:mnd,gomnd // There are 3 fields.
		s.backend.records[s.clientID] = rec
	}

	return rec
}
