package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/swan-cern/swanprojects/internal/sanitize"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	home := t.TempDir()
	store, err := NewStore(filepath.Join(home, "SWAN_projects"), home, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestNewStore(t *testing.T) {
	t.Run("requires root", func(t *testing.T) {
		_, err := NewStore("", "/home/user", zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("requires home", func(t *testing.T) {
		_, err := NewStore("/tmp/projects", "", zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("requires logger", func(t *testing.T) {
		_, err := NewStore("/tmp/projects", "/home/user", nil)
		assert.Error(t, err)
	})
}

func TestStoreCreate(t *testing.T) {
	meta := Metadata{Stack: "LCG", Release: "LCG_101", Platform: "x86_64-centos7-gcc8-opt"}

	t.Run("writes metadata and user script", func(t *testing.T) {
		store := newTestStore(t)

		dir, err := store.Create(context.Background(), "analysis", meta, "source setup.sh\n")
		require.NoError(t, err)
		assert.Equal(t, store.Dir("analysis"), dir)

		b, err := os.ReadFile(filepath.Join(dir, MetadataFile))
		require.NoError(t, err)
		assert.Equal(t, "{\n    \"platform\": \"x86_64-centos7-gcc8-opt\",\n    \"release\": \"LCG_101\",\n    \"stack\": \"LCG\"\n}\n", string(b))

		script, err := os.ReadFile(filepath.Join(dir, UserScriptFile))
		require.NoError(t, err)
		assert.Equal(t, "source setup.sh\n", string(script))
	})

	t.Run("empty user script writes empty file", func(t *testing.T) {
		store := newTestStore(t)

		dir, err := store.Create(context.Background(), "empty", meta, "")
		require.NoError(t, err)

		script, err := os.ReadFile(filepath.Join(dir, UserScriptFile))
		require.NoError(t, err)
		assert.Empty(t, script)
	})

	t.Run("duplicate name fails", func(t *testing.T) {
		store := newTestStore(t)

		_, err := store.Create(context.Background(), "dup", meta, "")
		require.NoError(t, err)

		_, err = store.Create(context.Background(), "dup", meta, "")
		assert.ErrorIs(t, err, ErrProjectExists)
	})

	t.Run("rejects unsafe names", func(t *testing.T) {
		store := newTestStore(t)

		_, err := store.Create(context.Background(), "../escape", meta, "")
		assert.ErrorIs(t, err, sanitize.ErrInvalidProjectName)

		_, err = store.Create(context.Background(), "a/b", meta, "")
		assert.ErrorIs(t, err, sanitize.ErrInvalidProjectName)
	})
}

func TestStoreEdit(t *testing.T) {
	meta := Metadata{Stack: "LCG", Release: "LCG_101", Platform: "x86_64-centos7-gcc8-opt"}
	newMeta := Metadata{Stack: "CMSSW", Release: "CMSSW_12_0_0", Platform: "slc7_amd64_gcc900"}

	t.Run("rewrites metadata in place", func(t *testing.T) {
		store := newTestStore(t)

		_, err := store.Create(context.Background(), "proj", meta, "old\n")
		require.NoError(t, err)

		dir, err := store.Edit(context.Background(), "proj", "proj", newMeta, "new\n")
		require.NoError(t, err)

		got, err := readMetadata(dir)
		require.NoError(t, err)
		assert.Equal(t, newMeta, got)

		script, err := os.ReadFile(filepath.Join(dir, UserScriptFile))
		require.NoError(t, err)
		assert.Equal(t, "new\n", string(script))
	})

	t.Run("renames project directory", func(t *testing.T) {
		store := newTestStore(t)

		oldDir, err := store.Create(context.Background(), "old-name", meta, "")
		require.NoError(t, err)

		newDir, err := store.Edit(context.Background(), "old-name", "new-name", meta, "")
		require.NoError(t, err)

		assert.NoDirExists(t, oldDir)
		assert.DirExists(t, newDir)
		assert.Equal(t, store.Dir("new-name"), newDir)
	})

	t.Run("removes stale native kernels", func(t *testing.T) {
		store := newTestStore(t)

		dir, err := store.Create(context.Background(), "proj", meta, "")
		require.NoError(t, err)

		for _, stale := range []string{"python2", "python3"} {
			require.NoError(t, os.MkdirAll(filepath.Join(dir, KernelDir, stale), 0o755))
		}
		require.NoError(t, os.MkdirAll(filepath.Join(dir, KernelDir, "root"), 0o755))

		_, err = store.Edit(context.Background(), "proj", "proj", meta, "")
		require.NoError(t, err)

		assert.NoDirExists(t, filepath.Join(dir, KernelDir, "python2"))
		assert.NoDirExists(t, filepath.Join(dir, KernelDir, "python3"))
		assert.DirExists(t, filepath.Join(dir, KernelDir, "root"))
	})

	t.Run("missing project fails", func(t *testing.T) {
		store := newTestStore(t)

		_, err := store.Edit(context.Background(), "ghost", "ghost", meta, "")
		assert.ErrorIs(t, err, ErrProjectNotFound)
	})

	t.Run("rename onto existing project fails", func(t *testing.T) {
		store := newTestStore(t)

		_, err := store.Create(context.Background(), "a", meta, "")
		require.NoError(t, err)
		_, err = store.Create(context.Background(), "b", meta, "")
		require.NoError(t, err)

		_, err = store.Edit(context.Background(), "a", "b", meta, "")
		assert.ErrorIs(t, err, ErrProjectExists)
	})
}

func TestStoreResolve(t *testing.T) {
	meta := Metadata{Stack: "LCG", Release: "LCG_101", Platform: "x86_64-centos7-gcc8-opt"}

	t.Run("finds project from nested path", func(t *testing.T) {
		store := newTestStore(t)

		dir, err := store.Create(context.Background(), "proj", meta, "")
		require.NoError(t, err)
		nested := filepath.Join(dir, "sub", "deeper")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		got, ok := store.Resolve(nested)
		assert.True(t, ok)
		assert.Equal(t, dir, got)
	})

	t.Run("resolves home-relative paths", func(t *testing.T) {
		store := newTestStore(t)

		dir, err := store.Create(context.Background(), "proj", meta, "")
		require.NoError(t, err)

		got, ok := store.Resolve(filepath.Join("SWAN_projects", "proj"))
		assert.True(t, ok)
		assert.Equal(t, dir, got)
	})

	t.Run("projects root itself is not a project", func(t *testing.T) {
		store := newTestStore(t)

		_, ok := store.Resolve(store.Root())
		assert.False(t, ok)
	})

	t.Run("path outside root is not a project", func(t *testing.T) {
		store := newTestStore(t)

		_, ok := store.Resolve("/etc")
		assert.False(t, ok)
	})

	t.Run("plain directory under root is not a project", func(t *testing.T) {
		store := newTestStore(t)

		plain := filepath.Join(store.Root(), "not-a-project")
		require.NoError(t, os.MkdirAll(plain, 0o755))

		_, ok := store.Resolve(plain)
		assert.False(t, ok)
	})
}

func TestStoreInfoAt(t *testing.T) {
	meta := Metadata{Stack: "LCG", Release: "LCG_101", Platform: "x86_64-centos7-gcc8-opt"}

	t.Run("returns full project description", func(t *testing.T) {
		store := newTestStore(t)

		dir, err := store.Create(context.Background(), "proj", meta, "echo hi\n")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ReadmeFile), []byte("# Proj\n"), 0o644))

		info, err := store.InfoAt(context.Background(), dir)
		require.NoError(t, err)
		assert.Equal(t, "proj", info.Name)
		assert.Equal(t, meta, info.Metadata)
		assert.Equal(t, "# Proj\n", info.Readme)
		assert.Equal(t, "echo hi\n", info.UserScript)
	})

	t.Run("omits readme when absent", func(t *testing.T) {
		store := newTestStore(t)

		dir, err := store.Create(context.Background(), "proj", meta, "")
		require.NoError(t, err)

		info, err := store.InfoAt(context.Background(), dir)
		require.NoError(t, err)
		assert.Empty(t, info.Readme)
	})

	t.Run("outside project returns ErrNotInProject", func(t *testing.T) {
		store := newTestStore(t)

		_, err := store.InfoAt(context.Background(), "/etc")
		assert.ErrorIs(t, err, ErrNotInProject)
	})
}
