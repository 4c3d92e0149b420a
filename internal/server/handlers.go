package server

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/aggregator"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/analysis"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/output"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/parser"
)

// pageQuery binds the pagination parameters of scan endpoints.
type pageQuery struct {
	Limit  int `form:"limit" binding:"min=1"`
	Offset int `form:"offset" binding:"min=0"`
}

// scanResponse is one page of a detector's results.
type scanResponse struct {
	Count   int                       `json:"count"`
	IsMore  bool                      `json:"is_more"`
	Results []model.ProcessedLogEntry `json:"results"`
}

// analysisView is the JSON representation of a saved analysis.
type analysisView struct {
	ID        string            `json:"id"`
	FileName  string            `json:"fileName"`
	CreatedAt time.Time         `json:"createdAt"`
	Stats     parser.Stats      `json:"stats"`
	Threats   int               `json:"threats"`
	Summary   *model.Summary    `json:"summary,omitempty"`
	Failures  map[string]string `json:"failures,omitempty"`
}

func viewOf(s *analysis.Session, withSummary bool) analysisView {
	v := analysisView{
		ID:        s.ID,
		FileName:  s.FileName,
		CreatedAt: s.CreatedAt,
		Stats:     s.Stats(),
		Threats:   s.Results().Len(),
	}
	if withSummary {
		summary := s.Summary()
		v.Summary = &summary
	}
	return v
}

func (s *Server) bindPage(c *gin.Context) (pageQuery, bool) {
	q := pageQuery{Limit: s.opts.PageLimit}
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "limit must be >= 1 and offset >= 0")
		return q, false
	}
	return q, true
}

// readUpload returns the multipart "file" field.
func readUpload(c *gin.Context) (string, []byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "multipart field \"file\" is required")
		return "", nil, false
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, fmt.Sprintf("opening upload: %v", err))
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		badRequest(c, fmt.Sprintf("reading upload: %v", err))
		return "", nil, false
	}
	return fh.Filename, data, true
}

func writePage(c *gin.Context, entries []model.ProcessedLogEntry, q pageQuery) {
	page, total, more := aggregator.Page(entries, q.Limit, q.Offset)
	if page == nil {
		page = []model.ProcessedLogEntry{}
	}
	c.JSON(http.StatusOK, scanResponse{Count: total, IsMore: more, Results: page})
}

// handleScan runs one detector over an uploaded file without saving anything.
// POST /api/scan/:endpoint
func (s *Server) handleScan(c *gin.Context) {
	endpoint := c.Param("endpoint")
	if _, _, err := s.opts.Registry.Lookup(endpoint); err != nil {
		s.fail(c, err)
		return
	}
	q, ok := s.bindPage(c)
	if !ok {
		return
	}
	name, data, ok := readUpload(c)
	if !ok {
		return
	}

	session, err := analysis.Load(name, data, s.sessionOptions())
	if err != nil {
		s.fail(c, err)
		return
	}
	results, err := session.Scan(c.Request.Context(), endpoint)
	if err != nil {
		s.fail(c, err)
		return
	}
	writePage(c, results, q)
}

// handleCreateAnalysis uploads a file, runs every detector and saves the session.
// POST /api/analyses
func (s *Server) handleCreateAnalysis(c *gin.Context) {
	name, data, ok := readUpload(c)
	if !ok {
		return
	}
	session, err := analysis.Load(name, data, s.sessionOptions())
	if err != nil {
		s.fail(c, err)
		return
	}
	outcome, err := session.ScanAll(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.analyses.Add(session.ID, session)

	v := viewOf(session, true)
	if len(outcome.Failures) > 0 {
		v.Failures = make(map[string]string, len(outcome.Failures))
		for endpoint, ferr := range outcome.Failures {
			v.Failures[endpoint] = ferr.Error()
		}
	}
	c.JSON(http.StatusCreated, v)
}

// handleListAnalyses lists saved analyses, newest first.
// GET /api/analyses
func (s *Server) handleListAnalyses(c *gin.Context) {
	views := make([]analysisView, 0, s.analyses.Len())
	for _, id := range s.analyses.Keys() {
		if session, ok := s.analyses.Peek(id); ok {
			views = append(views, viewOf(session, false))
		}
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	c.JSON(http.StatusOK, views)
}

func (s *Server) session(c *gin.Context) (*analysis.Session, bool) {
	id := c.Param("id")
	session, ok := s.analyses.Get(id)
	if !ok {
		s.fail(c, fmt.Errorf("%w: %s", errAnalysisNotFound, id))
		return nil, false
	}
	return session, true
}

// GET /api/analyses/:id
func (s *Server) handleGetAnalysis(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(session, true))
}

// DELETE /api/analyses/:id
func (s *Server) handleDeleteAnalysis(c *gin.Context) {
	id := c.Param("id")
	if !s.analyses.Remove(id) {
		s.fail(c, fmt.Errorf("%w: %s", errAnalysisNotFound, id))
		return
	}
	c.Status(http.StatusNoContent)
}

// handleAnalysisScan re-runs one detector on a saved analysis, replacing its earlier results.
// POST /api/analyses/:id/scan/:endpoint
func (s *Server) handleAnalysisScan(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	q, ok := s.bindPage(c)
	if !ok {
		return
	}
	results, err := session.Scan(c.Request.Context(), c.Param("endpoint"))
	if err != nil {
		s.fail(c, err)
		return
	}
	writePage(c, results, q)
}

// handleExport downloads the merged results of a saved analysis.
// GET /api/analyses/:id/export?format=csv|json
func (s *Server) handleExport(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	format, err := output.ParseFormat(c.DefaultQuery("format", string(output.FormatCSV)))
	if err != nil || format == output.FormatText {
		badRequest(c, "format must be csv or json")
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == output.FormatJSON {
		contentType = "application/json; charset=utf-8"
	}
	filename := fmt.Sprintf("threats_%s.%s", session.CreatedAt.Format("2006-01-02"), format)
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := output.Write(c.Writer, format, session.Results().Entries()); err != nil {
		s.logger.Error("export failed", "analysis", session.ID, "error", err)
	}
}
