package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swan-cern/swanprojects/internal/project"
)

// postJSON performs a JSON POST against the test server.
func postJSON(t *testing.T, ts *testServer, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	b, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	ts.server.echo.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreateProject(t *testing.T) {
	t.Run("creates project and regenerates kernels", func(t *testing.T) {
		ts := setupTestServer(t)

		rec := postJSON(t, ts, "/swan/api/v1/project/create", CreateProjectRequest{
			Name:       "analysis",
			Stack:      "LCG",
			Release:    "LCG_101",
			Platform:   "x86_64-centos7-gcc8-opt",
			UserScript: "source setup.sh\n",
		})

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp ProjectResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "SWAN_projects/analysis", resp.ProjectDir)
		assert.Equal(t, "created project: analysis", resp.Msg)
		assert.Equal(t, "run-1", resp.KernelRunID)
		assert.Equal(t, "analysis", ts.runner.last)

		assert.FileExists(t, filepath.Join(ts.store.Dir("analysis"), project.MetadataFile))
	})

	t.Run("missing name is a bad request", func(t *testing.T) {
		ts := setupTestServer(t)

		rec := postJSON(t, ts, "/swan/api/v1/project/create", CreateProjectRequest{Stack: "LCG"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unsafe name is a bad request", func(t *testing.T) {
		ts := setupTestServer(t)

		rec := postJSON(t, ts, "/swan/api/v1/project/create", CreateProjectRequest{Name: "../etc"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate name is a conflict", func(t *testing.T) {
		ts := setupTestServer(t)

		rec := postJSON(t, ts, "/swan/api/v1/project/create", CreateProjectRequest{Name: "dup"})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = postJSON(t, ts, "/swan/api/v1/project/create", CreateProjectRequest{Name: "dup"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("kernel tool failure is a bad gateway", func(t *testing.T) {
		ts := setupTestServer(t)
		ts.runner.err = errors.New("boom")

		rec := postJSON(t, ts, "/swan/api/v1/project/create", CreateProjectRequest{Name: "proj"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("invalid json is a bad request", func(t *testing.T) {
		ts := setupTestServer(t)

		req := httptest.NewRequest(http.MethodPost, "/swan/api/v1/project/create", bytes.NewReader([]byte("not json")))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		ts.server.echo.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleEditProject(t *testing.T) {
	t.Run("renames project", func(t *testing.T) {
		ts := setupTestServer(t)

		rec := postJSON(t, ts, "/swan/api/v1/project/create", CreateProjectRequest{Name: "old"})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = postJSON(t, ts, "/swan/api/v1/project/edit", EditProjectRequest{
			OldName: "old",
			Name:    "new",
			Stack:   "CMSSW",
		})
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp ProjectResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "SWAN_projects/new", resp.ProjectDir)
		assert.Equal(t, "edited project: new", resp.Msg)

		assert.NoDirExists(t, ts.store.Dir("old"))
		assert.DirExists(t, ts.store.Dir("new"))
	})

	t.Run("edit in place when old_name is omitted", func(t *testing.T) {
		ts := setupTestServer(t)

		rec := postJSON(t, ts, "/swan/api/v1/project/create", CreateProjectRequest{Name: "proj"})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = postJSON(t, ts, "/swan/api/v1/project/edit", EditProjectRequest{
			Name:    "proj",
			Release: "LCG_102",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing project is not found", func(t *testing.T) {
		ts := setupTestServer(t)

		rec := postJSON(t, ts, "/swan/api/v1/project/edit", EditProjectRequest{Name: "ghost"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleProjectInfo(t *testing.T) {
	t.Run("returns project data and tracks path", func(t *testing.T) {
		ts := setupTestServer(t)

		rec := postJSON(t, ts, "/swan/api/v1/project/create", CreateProjectRequest{
			Name:       "proj",
			Stack:      "LCG",
			Release:    "LCG_101",
			Platform:   "x86_64-centos7-gcc8-opt",
			UserScript: "echo hi\n",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		dir := ts.store.Dir("proj")
		require.NoError(t, os.WriteFile(filepath.Join(dir, project.ReadmeFile), []byte("# hello\n"), 0o644))

		rec = postJSON(t, ts, "/swan/api/v1/project/info", PathRequest{Path: dir})
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			ProjectData project.Info `json:"project_data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "proj", resp.ProjectData.Name)
		assert.Equal(t, "LCG", resp.ProjectData.Stack)
		assert.Equal(t, "# hello\n", resp.ProjectData.Readme)
		assert.Equal(t, "echo hi\n", resp.ProjectData.UserScript)

		_, projectDir := ts.tracker.Current()
		assert.Equal(t, dir, projectDir)
	})

	t.Run("outside project returns empty object", func(t *testing.T) {
		ts := setupTestServer(t)

		rec := postJSON(t, ts, "/swan/api/v1/project/info", PathRequest{Path: "/etc"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"project_data": {}}`, rec.Body.String())
	})

	t.Run("missing path is a bad request", func(t *testing.T) {
		ts := setupTestServer(t)

		rec := postJSON(t, ts, "/swan/api/v1/project/info", PathRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleStacksInfo(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/swan/api/v1/stacks/info", nil)
	rec := httptest.NewRecorder()
	ts.server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Stacks []struct {
			Name string `json:"name"`
		} `json:"stacks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Stacks, 1)
	assert.Equal(t, "LCG", resp.Stacks[0].Name)
}

func TestHandleKernelSpecSet(t *testing.T) {
	t.Run("reports project membership", func(t *testing.T) {
		ts := setupTestServer(t)

		rec := postJSON(t, ts, "/swan/api/v1/project/create", CreateProjectRequest{Name: "proj"})
		require.Equal(t, http.StatusOK, rec.Code)

		dir := ts.store.Dir("proj")
		rec = postJSON(t, ts, "/swan/api/v1/kernelspec/set", PathRequest{Path: dir})
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp KernelSpecSetResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.IsProject)
		assert.Equal(t, dir, resp.Path)
		assert.Equal(t, filepath.Join(dir, project.KernelDir), ts.tracker.KernelDir())
	})

	t.Run("outside project", func(t *testing.T) {
		ts := setupTestServer(t)

		rec := postJSON(t, ts, "/swan/api/v1/kernelspec/set", PathRequest{Path: "/etc"})
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp KernelSpecSetResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.IsProject)
		assert.Empty(t, ts.tracker.KernelDir())
	})
}
