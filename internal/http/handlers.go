package http

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/swan-cern/swanprojects/internal/project"
	"github.com/swan-cern/swanprojects/internal/sanitize"
)

// CreateProjectRequest is the body of POST project/create.
type CreateProjectRequest struct {
	Name       string `json:"name"`
	Stack      string `json:"stack"`
	Platform   string `json:"platform"`
	Release    string `json:"release"`
	UserScript string `json:"user_script"`
}

// EditProjectRequest is the body of POST project/edit.
type EditProjectRequest struct {
	OldName    string `json:"old_name"`
	Name       string `json:"name"`
	Stack      string `json:"stack"`
	Platform   string `json:"platform"`
	Release    string `json:"release"`
	UserScript string `json:"user_script"`
}

// ProjectResponse is the body returned by create and edit.
type ProjectResponse struct {
	ProjectDir  string `json:"project_dir"`
	Msg         string `json:"msg"`
	KernelRunID string `json:"kernel_run_id,omitempty"`
}

// PathRequest is the body of project/info and kernelspec/set.
type PathRequest struct {
	Path string `json:"path"`
}

// ProjectInfoResponse is the body of POST project/info. ProjectData is an
// empty object when the path is outside any project.
type ProjectInfoResponse struct {
	ProjectData any `json:"project_data"`
}

// StacksInfoResponse is the body of GET stacks/info.
type StacksInfoResponse struct {
	Stacks any `json:"stacks"`
}

// KernelSpecSetResponse is the body of POST kernelspec/set.
type KernelSpecSetResponse struct {
	IsProject bool   `json:"is_project"`
	Path      string `json:"path"`
}

// handleCreateProject creates a project directory with its metadata and user
// script, then regenerates its kernel specs.
func (s *Server) handleCreateProject(c echo.Context) error {
	var req CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid create request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name field is required")
	}

	meta := project.Metadata{Stack: req.Stack, Release: req.Release, Platform: req.Platform}

	dir, err := s.store.Create(c.Request().Context(), req.Name, meta, req.UserScript)
	if err != nil {
		return projectError(err)
	}

	result, err := s.runner.Regenerate(c.Request().Context(), req.Name)
	if err != nil {
		s.logger.Error("kernel spec regeneration failed",
			zap.String("project", req.Name), zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "kernel spec regeneration failed")
	}

	return c.JSON(http.StatusOK, ProjectResponse{
		ProjectDir:  s.relativeDir(dir),
		Msg:         "created project: " + req.Name,
		KernelRunID: result.RunID,
	})
}

// handleEditProject renames and/or rewrites a project, then regenerates its
// kernel specs.
func (s *Server) handleEditProject(c echo.Context) error {
	var req EditProjectRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid edit request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name field is required")
	}
	if req.OldName == "" {
		req.OldName = req.Name
	}

	meta := project.Metadata{Stack: req.Stack, Release: req.Release, Platform: req.Platform}

	dir, err := s.store.Edit(c.Request().Context(), req.OldName, req.Name, meta, req.UserScript)
	if err != nil {
		return projectError(err)
	}

	result, err := s.runner.Regenerate(c.Request().Context(), req.Name)
	if err != nil {
		s.logger.Error("kernel spec regeneration failed",
			zap.String("project", req.Name), zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "kernel spec regeneration failed")
	}

	return c.JSON(http.StatusOK, ProjectResponse{
		ProjectDir:  s.relativeDir(dir),
		Msg:         "edited project: " + req.Name,
		KernelRunID: result.RunID,
	})
}

// handleProjectInfo resolves the project containing a path and returns its
// description. The path is also recorded on the kernel-path tracker, the way
// the launcher expects navigation to switch the active kernels.
func (s *Server) handleProjectInfo(c echo.Context) error {
	var req PathRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid info request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path field is required")
	}

	s.tracker.Set(req.Path)

	info, err := s.store.InfoAt(c.Request().Context(), req.Path)
	if err != nil {
		if errors.Is(err, project.ErrNotInProject) {
			return c.JSON(http.StatusOK, ProjectInfoResponse{ProjectData: map[string]any{}})
		}
		return projectError(err)
	}

	return c.JSON(http.StatusOK, ProjectInfoResponse{ProjectData: info})
}

// handleStacksInfo returns the stacks catalogue.
func (s *Server) handleStacksInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, StacksInfoResponse{Stacks: s.stacks.Catalogue()})
}

// handleKernelSpecSet records the caller's current path on the tracker.
func (s *Server) handleKernelSpecSet(c echo.Context) error {
	var req PathRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid kernelspec request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path field is required")
	}

	isProject := s.tracker.Set(req.Path)

	s.logger.Debug("kernel spec path set",
		zap.String("path", req.Path),
		zap.Bool("is_project", isProject))

	return c.JSON(http.StatusOK, KernelSpecSetResponse{
		IsProject: isProject,
		Path:      req.Path,
	})
}

// relativeDir renders a project dir relative to the home directory, the form
// the frontend displays ("SWAN_projects/<name>").
func (s *Server) relativeDir(dir string) string {
	return filepath.Join(filepath.Base(s.store.Root()), filepath.Base(dir))
}

// projectError maps store errors to HTTP status codes.
func projectError(err error) error {
	switch {
	case errors.Is(err, project.ErrProjectExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, project.ErrProjectNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, sanitize.ErrInvalidProjectName),
		errors.Is(err, sanitize.ErrPathTraversal),
		errors.Is(err, sanitize.ErrEmptyPath),
		errors.Is(err, project.ErrInvalidMetadata):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}
