package browser

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/tabfetch/packages/db"
	"github.com/abdul-hamid-achik/tabfetch/packages/dispatch"
	"github.com/google/uuid"
)

// ErrTabNotFound is returned when no tab matches an id.
var ErrTabNotFound = errors.New("tab not found")

// ErrAmbiguousTab is returned when an id prefix matches several tabs.
var ErrAmbiguousTab = errors.New("tab id prefix is ambiguous")

type Tab struct {
	ID        string
	URL       string
	Active    bool
	CreatedAt time.Time
}

// TabStore persists the session's tabs. At most one tab is active.
type TabStore struct {
	client *db.Client
	now    func() time.Time
}

func NewTabStore(client *db.Client) *TabStore {
	return &TabStore{client: client, now: time.Now}
}

// Open creates a tab showing url and makes it the active one. Any address
// is accepted, restricted ones included, as a real browser would.
func (s *TabStore) Open(ctx context.Context, url string) (*Tab, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("tab URL is required")
	}

	tab := &Tab{
		ID:        uuid.NewString(),
		URL:       url,
		Active:    true,
		CreatedAt: s.now(),
	}

	err := s.client.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE tabs SET active = 0`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tabs (id, url, active, created_at) VALUES (?, ?, 1, ?)`,
			tab.ID, tab.URL, tab.CreatedAt.UnixNano())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("opening tab: %w", err)
	}
	return tab, nil
}

// List returns all tabs in the order they were opened.
func (s *TabStore) List(ctx context.Context) ([]*Tab, error) {
	var tabs []*Tab
	err := s.client.Query(ctx, `SELECT id, url, active, created_at FROM tabs ORDER BY created_at, id`, func(rows *sql.Rows) error {
		tab, err := scanTab(rows)
		if err != nil {
			return err
		}
		tabs = append(tabs, tab)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing tabs: %w", err)
	}
	return tabs, nil
}

// Get returns the tab with the given id or unique id prefix.
func (s *TabStore) Get(ctx context.Context, id string) (*Tab, error) {
	tabs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var match *Tab
	for _, tab := range tabs {
		if tab.ID == id {
			return tab, nil
		}
		if id != "" && strings.HasPrefix(tab.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("%w: %s", ErrAmbiguousTab, id)
			}
			match = tab
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrTabNotFound, id)
	}
	return match, nil
}

// Use makes the tab active.
func (s *TabStore) Use(ctx context.Context, id string) (*Tab, error) {
	tab, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.client.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE tabs SET active = 0`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE tabs SET active = 1 WHERE id = ?`, tab.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("activating tab: %w", err)
	}
	tab.Active = true
	return tab, nil
}

// Close removes the tab. Closing the active tab leaves no tab active.
func (s *TabStore) Close(ctx context.Context, id string) (*Tab, error) {
	tab, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.client.Exec(ctx, `DELETE FROM tabs WHERE id = ?`, tab.ID); err != nil {
		return nil, fmt.Errorf("closing tab: %w", err)
	}
	return tab, nil
}

// ActivePage reports the active tab, or nil when there is none.
func (s *TabStore) ActivePage(ctx context.Context) (*dispatch.Page, error) {
	var page *dispatch.Page
	err := s.client.Query(ctx, `SELECT id, url, active, created_at FROM tabs WHERE active = 1 LIMIT 1`, func(rows *sql.Rows) error {
		tab, err := scanTab(rows)
		if err != nil {
			return err
		}
		page = &dispatch.Page{ID: tab.ID, URL: tab.URL}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("finding active tab: %w", err)
	}
	return page, nil
}

func scanTab(rows *sql.Rows) (*Tab, error) {
	var (
		tab     Tab
		active  int
		created int64
	)
	if err := rows.Scan(&tab.ID, &tab.URL, &active, &created); err != nil {
		return nil, err
	}
	tab.Active = active == 1
	tab.CreatedAt = time.Unix(0, created)
	return &tab, nil
}
