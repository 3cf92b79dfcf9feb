package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/agenthands/boqmatch/internal/config"
	"github.com/agenthands/boqmatch/internal/core"
	"github.com/agenthands/boqmatch/internal/core/catalog"
	"github.com/agenthands/boqmatch/internal/core/model"
	"github.com/agenthands/boqmatch/internal/core/pogroup"
	"github.com/agenthands/boqmatch/internal/core/substitute"
)

// Reloader reloads the catalog on demand. *refresh.Refresher implements it.
type Reloader interface {
	Refresh(ctx context.Context) (*catalog.Snapshot, error)
}

type Server struct {
	Pipeline *core.Pipeline
	Reloader Reloader
	Config   config.ServerConfig
	Logger   *slog.Logger
}

func NewServer(p *core.Pipeline, reloader Reloader, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Pipeline: p,
		Reloader: reloader,
		Config:   cfg,
		Logger:   logger,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(s.Logger), corsMiddleware(s.Config.AllowedOrigins))

	r.GET("/healthz", s.Health)

	v1 := r.Group("/v1")
	if s.Config.RateLimit > 0 {
		v1.Use(newClientLimiter(s.Config).middleware())
	}
	v1.POST("/normalize", s.Normalize)
	v1.POST("/rank", s.Rank)
	v1.POST("/substitutions", s.Suggest)
	v1.POST("/substitutions/decide", s.Decide)
	v1.POST("/purchase-orders", s.GroupPurchaseOrders)
	v1.GET("/catalog/status", s.CatalogStatus)
	v1.POST("/catalog/refresh", s.RefreshCatalog)

	return r
}

type NormalizeRequest struct {
	Items []model.RawLineItem `json:"items"`
}

type RankRequest struct {
	Items []model.NormalizedItem `json:"items"`
}

type RankResponse struct {
	Rankings map[string][]model.RankedOffer `json:"rankings"`
}

type SuggestRequest struct {
	Items      []model.NormalizedItem `json:"items"`
	Selections map[string]string      `json:"selections"`
}

type DecideRequest struct {
	Proposals  []model.SubstitutionProposal `json:"proposals"`
	ProposalID string                       `json:"proposal_id"`
	Decision   model.Decision               `json:"decision"`
}

type DecideResponse struct {
	Proposal  model.SubstitutionProposal   `json:"proposal"`
	Proposals []model.SubstitutionProposal `json:"proposals"`
}

type PurchaseOrdersResponse struct {
	pogroup.Result
	GrandTotal decimal.Decimal `json:"grand_total"`
}

type CatalogStatus struct {
	Version  int64           `json:"version"`
	Source   string          `json:"source"`
	LoadedAt time.Time       `json:"loaded_at"`
	Entries  int             `json:"entries"`
	Offers   int             `json:"offers"`
	Issues   []catalog.Issue `json:"issues"`
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Normalize(c *gin.Context) {
	var req NormalizeRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.Pipeline.Normalize(c.Request.Context(), req.Items)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) Rank(c *gin.Context) {
	var req RankRequest
	if !s.bind(c, &req) {
		return
	}
	rankings, err := s.Pipeline.RankVendors(c.Request.Context(), req.Items)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, RankResponse{Rankings: rankings})
}

func (s *Server) Suggest(c *gin.Context) {
	var req SuggestRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.Pipeline.SuggestSubstitutions(c.Request.Context(), req.Items, req.Selections)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Decide records a decision on one of the proposals sent along with it.
// Proposals are not stored here; the caller keeps the returned list.
func (s *Server) Decide(c *gin.Context) {
	var req DecideRequest
	if !s.bind(c, &req) {
		return
	}
	proposals := req.Proposals
	for i := range proposals {
		if proposals[i].Decision == "" {
			proposals[i].Decision = model.DecisionPending
		}
	}
	decided, err := substitute.Decide(proposals, req.ProposalID, req.Decision)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, DecideResponse{Proposal: decided, Proposals: proposals})
}

func (s *Server) GroupPurchaseOrders(c *gin.Context) {
	var req core.GroupRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.Pipeline.GroupPurchaseOrders(c.Request.Context(), req)
	if errors.Is(err, model.ErrNoGroups) {
		c.Error(err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "ungrouped": res.Ungrouped})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, PurchaseOrdersResponse{Result: res, GrandTotal: res.GrandTotal()})
}

func (s *Server) CatalogStatus(c *gin.Context) {
	snap, err := s.Pipeline.Index.Snapshot()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, statusOf(snap))
}

func (s *Server) RefreshCatalog(c *gin.Context) {
	if s.Reloader == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "catalog refresh is not configured"})
		return
	}
	snap, err := s.Reloader.Refresh(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, statusOf(snap))
}

func statusOf(snap *catalog.Snapshot) CatalogStatus {
	issues := snap.Issues
	if issues == nil {
		issues = []catalog.Issue{}
	}
	return CatalogStatus{
		Version:  snap.Version,
		Source:   snap.Source,
		LoadedAt: snap.LoadedAt,
		Entries:  snap.EntryCount(),
		Offers:   snap.OfferCount(),
		Issues:   issues,
	}
}

func (s *Server) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return false
	}
	return true
}

// fail maps core errors onto HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	c.Error(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrCatalogUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, model.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrUnknownProposal):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrDecisionFinal):
		status = http.StatusConflict
	case errors.Is(err, model.ErrNoGroups):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusRequestTimeout
	}
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
