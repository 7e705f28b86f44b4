package browser

import (
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/tabfetch/packages/db"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*db.Client, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.db")
	client, err := db.NewClient(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, path
}
