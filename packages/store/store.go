// Package store keeps the last-submitted form fields between sessions.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"

	"github.com/abdul-hamid-achik/tabfetch/packages/db"
	"github.com/abdul-hamid-achik/tabfetch/packages/request"
)

// Keys are the field store keys, one per form field.
const (
	KeyURL      = "url"
	KeyMethod   = "method"
	KeyHeaders  = "headers"
	KeyBody     = "body"
	KeyRunInTab = "runInTab"
)

// Store reads and writes the last-used fields.
type Store interface {
	Load(ctx context.Context) (request.Fields, error)
	Save(ctx context.Context, fields request.Fields) error
}

// defaults is what Load reports before anything was saved.
func defaults() request.Fields {
	return request.Fields{RunInTab: true}
}

// SQLite stores fields in the fields table of the tabfetch database.
type SQLite struct {
	client *db.Client
}

func NewSQLite(client *db.Client) *SQLite {
	return &SQLite{client: client}
}

func (s *SQLite) Load(ctx context.Context) (request.Fields, error) {
	fields := defaults()
	err := s.client.Query(ctx, `SELECT key, value FROM fields`, func(rows *sql.Rows) error {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		return apply(&fields, key, value)
	})
	if err != nil {
		return defaults(), fmt.Errorf("loading fields: %w", err)
	}
	return fields, nil
}

func (s *SQLite) Save(ctx context.Context, fields request.Fields) error {
	return s.client.Tx(ctx, func(tx *sql.Tx) error {
		for key, value := range encode(fields) {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO fields (key, value) VALUES (?, ?)
				 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
				key, value)
			if err != nil {
				return fmt.Errorf("saving field %s: %w", key, err)
			}
		}
		return nil
	})
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.Mutex
	fields request.Fields
	saved  bool
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(context.Context) (request.Fields, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return defaults(), nil
	}
	return m.fields, nil
}

func (m *Memory) Save(_ context.Context, fields request.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields = fields
	m.saved = true
	return nil
}

func encode(fields request.Fields) map[string]string {
	return map[string]string{
		KeyURL:      fields.URL,
		KeyMethod:   fields.Method,
		KeyHeaders:  fields.Headers,
		KeyBody:     fields.Body,
		KeyRunInTab: strconv.FormatBool(fields.RunInTab),
	}
}

func apply(fields *request.Fields, key, value string) error {
	switch key {
	case KeyURL:
		fields.URL = value
	case KeyMethod:
		fields.Method = value
	case KeyHeaders:
		fields.Headers = value
	case KeyBody:
		fields.Body = value
	case KeyRunInTab:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", KeyRunInTab, value, err)
		}
		fields.RunInTab = b
	}
	return nil
}
