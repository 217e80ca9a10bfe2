package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sqlgate/pkg/health"
	"sqlgate/pkg/logger"
	"sqlgate/pkg/pool"
)

// Handler encapsulates the HTTP surface over the pool registry
type Handler struct {
	registry *pool.Registry
	monitor  *health.Monitor
	log      *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(registry *pool.Registry, monitor *health.Monitor) *Handler {
	return &Handler{
		registry: registry,
		monitor:  monitor,
		log:      logger.Get().Named("api"),
	}
}

// RegisterRoutes attaches all routes to the router
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.HandleHealth)
	r.GET("/ws/stats", h.HandleStatsStream)

	v1 := r.Group("/api/v1")
	v1.GET("/pools", h.HandleListPools)
	v1.GET("/pools/:pool/stats", h.HandlePoolStats)
	v1.POST("/pools/:pool/query", h.HandleQuery)
	v1.POST("/pools/:pool/procedure", h.HandleProcedure)
}

// QueryRequest is the payload for query submission
type QueryRequest struct {
	Query  string `json:"query" binding:"required"`
	Params []any  `json:"params"`
}

// HandleQuery submits a query to a named pool
func (h *Handler) HandleQuery(c *gin.Context) {
	name := c.Param("pool")
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	mgr, err := h.registry.Get(name)
	if err != nil {
		RespondError(c, statusFor(err), err.Error())
		return
	}

	rs, err := mgr.Query(c.Request.Context(), req.Query, req.Params)
	if err != nil {
		h.log.WarnWith("query failed", "pool", name, "error", err)
		RespondError(c, statusFor(err), err.Error())
		return
	}
	RespondSuccess(c, rs, "")
}

// HandleProcedure invokes a stored procedure on a named pool
func (h *Handler) HandleProcedure(c *gin.Context) {
	name := c.Param("pool")
	var call pool.ProcedureCall
	if err := c.ShouldBindJSON(&call); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	mgr, err := h.registry.Get(name)
	if err != nil {
		RespondError(c, statusFor(err), err.Error())
		return
	}

	rs, err := mgr.CallProcedure(c.Request.Context(), call)
	if err != nil {
		h.log.WarnWith("procedure failed", "pool", name, "procedure", call.Name, "error", err)
		RespondError(c, statusFor(err), err.Error())
		return
	}
	RespondSuccess(c, rs, "")
}

// HandleListPools returns stats for every registered pool
func (h *Handler) HandleListPools(c *gin.Context) {
	RespondSuccess(c, h.registry.Stats(), "")
}

// HandlePoolStats returns stats for one pool
func (h *Handler) HandlePoolStats(c *gin.Context) {
	mgr, err := h.registry.Get(c.Param("pool"))
	if err != nil {
		RespondError(c, statusFor(err), err.Error())
		return
	}
	RespondSuccess(c, mgr.Stats(), "")
}

// HandleHealth returns the server health report
func (h *Handler) HandleHealth(c *gin.Context) {
	report := h.monitor.Report()
	status := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
