package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crwatch/backend/internal/domain"
	"github.com/crwatch/backend/internal/usecase"
)

// maxURLLimit caps the number of scored matches a client may ask for
const maxURLLimit = 50

// Handler holds dependencies for HTTP handlers
type Handler struct {
	lookup  *usecase.LookupService
	version string
}

// NewHandler creates a new HTTP handler
func NewHandler(lookup *usecase.LookupService, version string) *Handler {
	if version == "" {
		version = "dev"
	}
	return &Handler{
		lookup:  lookup,
		version: version,
	}
}

// MatchRequest is the JSON body of POST /api/v1/match
type MatchRequest struct {
	URL               string            `json:"url"`
	Hostname          string            `json:"hostname"`
	Title             string            `json:"title"`
	Meta              map[string]string `json:"meta"`
	SuppressedDomains []string          `json:"suppressedDomains"`
}

func (r MatchRequest) pageContext() domain.PageContext {
	return domain.PageContext{
		URL:      r.URL,
		Hostname: r.Hostname,
		Title:    r.Title,
		Meta:     r.Meta,
	}
}

// MatchResponse is the JSON body returned by POST /api/v1/match
type MatchResponse struct {
	Matches         []domain.Entry `json:"matches"`
	Incidents       []domain.Entry `json:"incidents"`
	Seeds           []string       `json:"seeds"`
	Count           int            `json:"count"`
	Badge           string         `json:"badge"`
	SnapshotVersion string         `json:"snapshotVersion"`
	Source          string         `json:"source"`
	Suppressed      bool           `json:"suppressed"`
}

// URLMatchRequest is the JSON body of POST /api/v1/match/url
type URLMatchRequest struct {
	URL   string `json:"url"`
	Limit int    `json:"limit"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "crw-backend",
		"version": h.version,
	})
}

// Match returns the dataset entries relevant to the page the extension is showing
func (h *Handler) Match(c *gin.Context) {
	if h.lookup == nil {
		respondError(c, domain.ErrDatasetUnavailable)
		return
	}

	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.lookup.Match(c.Request.Context(), &domain.MatchRequest{
		PageContext:       req.pageContext(),
		SuppressedDomains: req.SuppressedDomains,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MatchResponse{
		Matches:         result.Entries,
		Incidents:       result.Incidents,
		Seeds:           result.Seeds,
		Count:           len(result.Entries),
		Badge:           result.Badge(),
		SnapshotVersion: result.SnapshotVersion,
		Source:          result.Source,
		Suppressed:      result.Suppressed,
	})
}

// MatchURL returns the scored URL matches for a raw URL and their relations
func (h *Handler) MatchURL(c *gin.Context) {
	if h.lookup == nil {
		respondError(c, domain.ErrDatasetUnavailable)
		return
	}

	var req URLMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Limit > maxURLLimit {
		req.Limit = maxURLLimit
	}

	result, err := h.lookup.MatchURL(c.Request.Context(), req.URL, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Explain returns every intermediate step of matching a page context
func (h *Handler) Explain(c *gin.Context) {
	if h.lookup == nil {
		respondError(c, domain.ErrDatasetUnavailable)
		return
	}

	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	explanation, err := h.lookup.Explain(c.Request.Context(), req.pageContext())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, explanation)
}

// Dataset describes the dataset snapshot being served
func (h *Handler) Dataset(c *gin.Context) {
	if h.lookup == nil {
		respondError(c, domain.ErrDatasetUnavailable)
		return
	}

	stats, err := h.lookup.Stats()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// respondError maps service errors to the JSON error envelope
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDatasetUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRateLimited):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
