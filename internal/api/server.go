package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/david/grant-agent/internal/alerts"
	"github.com/david/grant-agent/internal/app"
	"github.com/david/grant-agent/internal/auth"
	"github.com/david/grant-agent/internal/db"
	"github.com/david/grant-agent/internal/ingest"
	"github.com/david/grant-agent/internal/models"
)

// maxBodyBytes caps request bodies read by hand.
const maxBodyBytes = 1 << 20

type Server struct {
	App  *app.App
	Auth *auth.Authenticator
	Echo *echo.Echo

	// mu serializes batch runs, rescoring and status patches; the store has
	// a single writer.
	mu      sync.Mutex
	session alerts.Counters
}

func NewServer(a *app.App, authenticator *auth.Authenticator) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: the local dashboard plus any configured origins
	allowedOrigins := append([]string{"http://localhost:4200"}, a.Options.Origins()...)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, auth.AdminSecretHeader},
	}))

	s := &Server{
		App:  a,
		Auth: authenticator,
		Echo: e,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	s.Echo.GET("/grants.js", s.handleGrantsScript)

	api := s.Echo.Group("/api/v1")
	api.GET("/grants", s.handleListGrants)
	api.GET("/grants/:id", s.handleGetGrant)
	api.GET("/stats", s.handleGetStats)
	api.GET("/runs", s.handleListRuns)
	api.GET("/sources", s.handleGetSources)
	api.POST("/auth/token", s.handleIssueToken)

	// Admin routes
	admin := api.Group("")
	admin.Use(s.Auth.Middleware)
	admin.POST("/ingest", s.handleIngest)
	admin.POST("/ingest/records", s.handleIngestRecords)
	admin.POST("/ingest/funnel", s.handleIngestFunnel)
	admin.PATCH("/grants/:id", s.handlePatchGrant)
	admin.POST("/admin/rescore", s.handleRescore)
	admin.POST("/alerts/test", s.handleTestAlert)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// loadRecords refreshes the store from its backend, which another process
// (the agent, a tool) may have written since the last request.
func (s *Server) loadRecords(c echo.Context) ([]models.GrantRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.App.Store.Load(c.Request().Context()); err != nil {
		return nil, err
	}
	return s.App.Store.Records(), nil
}

func internalError(c echo.Context, err error) error {
	c.Logger().Errorf("request failed: %v", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
}

func (s *Server) handleGrantsScript(c echo.Context) error {
	records, err := s.loadRecords(c)
	if err != nil {
		return internalError(c, err)
	}
	body, err := db.EncodeScript(records)
	if err != nil {
		return internalError(c, err)
	}
	return c.Blob(http.StatusOK, "application/javascript; charset=utf-8", body)
}

type listResponse struct {
	Items  []models.GrantRecord `json:"items"`
	Total  int                  `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

func (s *Server) handleListGrants(c echo.Context) error {
	q := strings.ToLower(strings.TrimSpace(c.QueryParam("q")))
	priority := splitCSV(c.QueryParam("priority"))
	status := splitCSV(c.QueryParam("status"))
	category := splitCSV(c.QueryParam("source_category"))
	minScore, _ := strconv.Atoi(c.QueryParam("min_score"))

	limit := 20
	offset := 0
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	if o, err := strconv.Atoi(c.QueryParam("offset")); err == nil && o >= 0 {
		offset = o
	}

	records, err := s.loadRecords(c)
	if err != nil {
		return internalError(c, err)
	}

	matched := make([]models.GrantRecord, 0, len(records))
	for _, rec := range records {
		if rec.RelevanceScore < minScore {
			continue
		}
		if len(priority) > 0 && !containsFold(priority, string(rec.Priority)) {
			continue
		}
		if len(status) > 0 && !containsFold(status, string(effectiveStatus(rec))) {
			continue
		}
		if len(category) > 0 && !containsFold(category, rec.SourceCategory) {
			continue
		}
		if q != "" && !matchesQuery(rec, q) {
			continue
		}
		matched = append(matched, rec)
	}

	resp := listResponse{Total: len(matched), Limit: limit, Offset: offset, Items: []models.GrantRecord{}}
	if offset < len(matched) {
		end := min(offset+limit, len(matched))
		resp.Items = matched[offset:end]
	}
	return c.JSON(http.StatusOK, resp)
}

func effectiveStatus(rec models.GrantRecord) models.Status {
	if rec.Status == "" {
		return models.StatusNotApplied
	}
	return rec.Status
}

func matchesQuery(rec models.GrantRecord, q string) bool {
	for _, field := range []string{rec.ProgramName, rec.Provider, rec.SectorFocus, rec.Country, rec.EligibilitySummary} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func splitCSV(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}

func (s *Server) handleGetGrant(c echo.Context) error {
	id := c.Param("id")
	if _, err := s.loadRecords(c); err != nil {
		return internalError(c, err)
	}

	s.mu.Lock()
	rec, ok := s.App.Store.Get(id)
	var out models.GrantRecord
	if ok {
		out = rec.Clone()
	}
	s.mu.Unlock()

	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	return c.JSON(http.StatusOK, out)
}

type statsResponse struct {
	db.Stats
	High          int             `json:"high"`
	SessionAlerts alerts.Counters `json:"session_alerts"`
}

func (s *Server) handleGetStats(c echo.Context) error {
	records, err := s.loadRecords(c)
	if err != nil {
		return internalError(c, err)
	}
	stats := db.ComputeStats(records)

	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	return c.JSON(http.StatusOK, statsResponse{Stats: stats, High: stats.High(), SessionAlerts: session})
}

func (s *Server) handleListRuns(c echo.Context) error {
	entries, err := s.App.RunLog.Entries()
	if err != nil {
		return internalError(c, err)
	}
	// newest first
	out := make([]db.RunEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetSources(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"sources": s.App.Sources.IDs(),
		"default": s.App.Options.Source,
	})
}

type tokenRequest struct {
	Secret  string `json:"secret"`
	Subject string `json:"subject"`
}

func (s *Server) handleIssueToken(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if req.Secret == "" {
		req.Secret = c.Request().Header.Get(auth.AdminSecretHeader)
	}

	token, expires, err := s.Auth.IssueToken(req.Secret, req.Subject)
	if errors.Is(err, auth.ErrInvalidCreds) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
	}
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"token": token, "expires_at": expires.UTC().Format(time.RFC3339)})
}

// runBatch runs source under the write lock and folds its alerts into the session.
func (s *Server) runBatch(c echo.Context, source ingest.CandidateSource) error {
	s.mu.Lock()
	report, err := s.App.Pipeline.RunBatch(c.Request().Context(), source)
	s.session = s.session.Add(report.Alerts)
	s.mu.Unlock()

	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) handleIngest(c echo.Context) error {
	source, err := s.App.Source(c.QueryParam("source"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return s.runBatch(c, source)
}

func (s *Server) handleIngestRecords(c echo.Context) error {
	var records []models.GrantRecord
	if err := json.NewDecoder(io.LimitReader(c.Request().Body, maxBodyBytes)).Decode(&records); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Expected a JSON array of grants"})
	}
	if len(records) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No grants provided"})
	}
	for i, rec := range records {
		if strings.TrimSpace(rec.ProgramName) == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "program_name is required (item " + strconv.Itoa(i) + ")"})
		}
	}

	label := c.QueryParam("source")
	if label == "" {
		label = "api"
	}
	return s.runBatch(c, ingest.StaticSource{Label: label, Records: records})
}

func (s *Server) handleIngestFunnel(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Could not read body"})
	}
	if strings.TrimSpace(string(body)) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": ingest.ErrEmptyFunnelText.Error()})
	}
	return s.runBatch(c, ingest.FunnelSource{Text: string(body)})
}

type patchRequest struct {
	Status *models.Status `json:"status"`
	Notes  *string        `json:"notes"`
}

func (s *Server) handlePatchGrant(c echo.Context) error {
	var req patchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if req.Status == nil && req.Notes == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "status or notes required"})
	}

	ctx := c.Request().Context()
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.App.Store.Load(ctx); err != nil {
		return internalError(c, err)
	}
	updated, err := s.App.Store.UpdateUserState(c.Param("id"), req.Status, req.Notes)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	case errors.Is(err, models.ErrInvalidTransition):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case err != nil:
		return internalError(c, err)
	}

	if err := s.App.Store.Save(ctx); err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleRescore(c echo.Context) error {
	s.mu.Lock()
	changed, err := s.App.Pipeline.Rescore(c.Request().Context())
	s.mu.Unlock()

	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"rescored": changed})
}

func (s *Server) handleTestAlert(c echo.Context) error {
	counters := s.App.Dispatcher.SendTest(c.Request().Context())

	s.mu.Lock()
	s.session = s.session.Add(counters)
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]any{
		"sink_configured": s.App.Dispatcher.Enabled(),
		"delivered":       counters.Failures == 0,
	})
}
