package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/notebookd/notebookd/internal/importer"
	"github.com/notebookd/notebookd/internal/nb"
	"github.com/notebookd/notebookd/internal/store"
)

// cellTimeout is passed to the engine for every run. The engine records it
// but does not enforce it.
const cellTimeout = 30 * time.Second

type runRequest struct {
	Parameters map[string]any `json:"parameters"`
}

type runResponse struct {
	Success       bool    `json:"success"`
	OutputText    string  `json:"output_text"`
	OutputHTML    string  `json:"output_html"`
	Error         string  `json:"error,omitempty"`
	ExecutionTime float64 `json:"execution_time"`
	ExecutionID   int64   `json:"execution_id,omitempty"`
}

func (s *Server) listNotebooks(c *gin.Context) {
	notebooks, err := s.store.ListNotebooks(c.Request.Context(), true)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notebooks": notebooks})
}

// getNotebook returns the notebook with its cells, resolving each
// parameter's current value session-first, default-second.
func (s *Server) getNotebook(c *gin.Context) {
	ctx := c.Request.Context()
	notebook, err := s.store.GetNotebookBySlug(ctx, c.Param("slug"))
	if err != nil {
		s.fail(c, err)
		return
	}
	cells, err := s.store.ListCells(ctx, notebook.ID)
	if err != nil {
		s.fail(c, err)
		return
	}

	session, err := s.store.GetOrCreateSession(ctx, notebook.ID, s.sessionKey(c))
	if err != nil {
		s.fail(c, err)
		return
	}

	type paramView struct {
		nb.Parameter
		CurrentValue any `json:"current_value"`
	}
	type cellView struct {
		nb.Cell
		Parameters []paramView `json:"parameters"`
	}

	views := make([]cellView, 0, len(cells))
	for _, cell := range cells {
		cv := cellView{Cell: cell, Parameters: []paramView{}}
		for _, p := range cell.Parameters {
			current := any(defaultValue(p))
			if v, ok := session.ParamValues[nb.ParamKey(cell.ID, p.Name)]; ok {
				current = v
			}
			cv.Parameters = append(cv.Parameters, paramView{Parameter: p, CurrentValue: current})
		}
		views = append(views, cv)
	}

	c.JSON(http.StatusOK, gin.H{
		"notebook":       notebook,
		"cells":          views,
		"setup_complete": session.SetupComplete(),
	})
}

// runSetup executes the notebook's setup cells in order and marks the
// session's kernel as ready. A failing setup cell stops the sequence.
func (s *Server) runSetup(c *gin.Context) {
	ctx := c.Request.Context()
	notebook, err := s.store.GetNotebookBySlug(ctx, c.Param("slug"))
	if err != nil {
		s.fail(c, err)
		return
	}
	setupCells, err := s.store.ListSetupCells(ctx, notebook.ID)
	if err != nil {
		s.fail(c, err)
		return
	}

	key := s.sessionKey(c)
	session, err := s.store.GetOrCreateSession(ctx, notebook.ID, key)
	if err != nil {
		s.fail(c, err)
		return
	}

	eng := s.registry.GetOrCreate(key, s.basePath)
	for _, cell := range setupCells {
		res := eng.Execute(cell.Source, nil, cellTimeout)
		if !res.OK() {
			c.JSON(http.StatusOK, gin.H{
				"setup_complete": false,
				"failed_cell":    cell.ID,
				"error":          res.Error,
			})
			return
		}
	}

	if session.KernelState == nil {
		session.KernelState = map[string]any{}
	}
	session.KernelState["setup_complete"] = true
	if err := s.store.SaveSession(ctx, session); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"setup_complete": true,
		"cells_run":      len(setupCells),
	})
}

// runCell executes one stored cell with the caller's parameter values. When
// the notebook has setup cells the session has not run, the cell is refused
// with needs_setup so the client can call the setup endpoint first.
func (s *Server) runCell(c *gin.Context) {
	ctx := c.Request.Context()
	cellID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cell id"})
		return
	}

	cell, err := s.store.GetCell(ctx, cellID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if cell.Type == nb.CellMarkdown {
		c.JSON(http.StatusBadRequest, gin.H{"error": "markdown cells are not executable"})
		return
	}

	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	key := s.sessionKey(c)
	session, err := s.store.GetOrCreateSession(ctx, cell.NotebookID, key)
	if err != nil {
		s.fail(c, err)
		return
	}

	if !cell.IsSetup && !session.SetupComplete() {
		setupCells, err := s.store.ListSetupCells(ctx, cell.NotebookID)
		if err != nil {
			s.fail(c, err)
			return
		}
		if len(setupCells) > 0 {
			c.JSON(http.StatusConflict, gin.H{
				"error":       "setup required",
				"needs_setup": true,
			})
			return
		}
	}

	params := resolveParams(cell, session, req.Parameters)
	eng := s.registry.GetOrCreate(key, s.basePath)
	res := eng.Execute(cell.Source, params, cellTimeout)

	status := nb.ExecSuccess
	if !res.OK() {
		status = nb.ExecError
	}
	execID, err := s.store.InsertExecution(ctx, nb.Execution{
		CellID:       cell.ID,
		Params:       params,
		Status:       status,
		OutputText:   res.Output,
		OutputHTML:   res.HTML,
		ErrorMessage: res.Error,
		Elapsed:      res.Elapsed,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	if session.ParamValues == nil {
		session.ParamValues = map[string]any{}
	}
	for name, value := range params {
		session.ParamValues[nb.ParamKey(cell.ID, name)] = value
	}
	session.LastCellID = &cell.ID
	if err := s.store.SaveSession(ctx, session); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, runResponse{
		Success:       res.OK(),
		OutputText:    res.Output,
		OutputHTML:    res.HTML,
		Error:         res.Error,
		ExecutionTime: res.Elapsed,
		ExecutionID:   execID,
	})
}

// resetSession destroys the caller's engine and session row for a notebook.
func (s *Server) resetSession(c *gin.Context) {
	ctx := c.Request.Context()
	notebook, err := s.store.GetNotebookBySlug(ctx, c.Param("slug"))
	if err != nil {
		s.fail(c, err)
		return
	}

	key := s.sessionKey(c)
	s.registry.Destroy(key)
	if err := s.store.DeleteSession(ctx, notebook.ID, key); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reset": true})
}

func (s *Server) history(c *gin.Context) {
	ctx := c.Request.Context()
	notebook, err := s.store.GetNotebookBySlug(ctx, c.Param("slug"))
	if err != nil {
		s.fail(c, err)
		return
	}
	executions, err := s.store.ListExecutions(ctx, notebook.ID, 100)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"executions": executions})
}

func (s *Server) exportNotebook(c *gin.Context) {
	ctx := c.Request.Context()
	notebook, err := s.store.GetNotebookBySlug(ctx, c.Param("slug"))
	if err != nil {
		s.fail(c, err)
		return
	}
	cells, err := s.store.ListCells(ctx, notebook.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.String(http.StatusOK, importer.Export(notebook, cells))
}

type executeRequest struct {
	Source    string         `json:"source"`
	SessionID string         `json:"session_id"`
	Params    map[string]any `json:"parameters"`
}

// executeRaw runs arbitrary source in the named session's engine. A session
// id is minted when the request carries none, and always echoed back.
func (s *Server) executeRaw(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Source == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source is required"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	eng := s.registry.GetOrCreate(req.SessionID, s.basePath)
	res := eng.Execute(req.Source, req.Params, cellTimeout)

	c.JSON(http.StatusOK, gin.H{
		"success":        res.OK(),
		"output_text":    res.Output,
		"output_html":    res.HTML,
		"error":          res.Error,
		"execution_time": res.Elapsed,
		"session_id":     req.SessionID,
	})
}

// fail maps store errors to HTTP responses.
func (s *Server) fail(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.log.Error("request failed", "path", c.FullPath(), "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
