package tenant

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervaldb/intervaldb/internal/config"
	"github.com/intervaldb/intervaldb/internal/model"
)

func TestSanitize(t *testing.T) {
	for _, name := range []string{"prod", "tenant_1", "a-b-c", "X9"} {
		got, err := Sanitize(name)
		require.NoError(t, err)
		assert.Equal(t, name, got)
	}
	for _, name := range []string{"", "has space", "semi;colon", "dot.dot", "../escape", "ünïcode"} {
		_, err := Sanitize(name)
		assert.Error(t, err, "name %q", name)
	}
}

func newManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := New(dir, config.DefaultLimits(), logger, nil)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m, dir
}

func TestManagerCreatesDataDir(t *testing.T) {
	_, dir := newManager(t)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestManagerLazyConstructionAndSharedHandle(t *testing.T) {
	m, dir := newManager(t)

	assert.Empty(t, m.Tenants())

	first, err := m.Get("alpha")
	require.NoError(t, err)
	second, err := m.Get("alpha")
	require.NoError(t, err)
	assert.Same(t, first, second, "subsequent access returns the same engine")
	assert.Equal(t, []string{"alpha"}, m.Tenants())

	// writes through one handle are visible through the other (same engine)
	id := model.NewID()
	require.NoError(t, first.CreateResource(id, nil, nil, 1, nil))
	assert.Len(t, second.ListResources(nil), 1)

	// the WAL landed at <data_dir>/<name>.wal
	_, err = os.Stat(filepath.Join(dir, "alpha.wal"))
	assert.NoError(t, err)
}

func TestManagerIsolatesTenants(t *testing.T) {
	m, _ := newManager(t)

	alpha, err := m.Get("alpha")
	require.NoError(t, err)
	beta, err := m.Get("beta")
	require.NoError(t, err)

	require.NoError(t, alpha.CreateResource(model.NewID(), nil, nil, 1, nil))
	assert.Empty(t, beta.ListResources(nil), "tenants share nothing")
}

func TestManagerRejectsInvalidName(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.Get("../../etc/passwd")
	assert.Error(t, err)
	_, err = m.Get("")
	assert.Error(t, err)
}
