package api

import (
	"net/http"

	"insurance-mcp/internal/mcp"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Handler exposes the tool handlers as a JSON API for a web front-end.
type Handler struct {
	svc     *mcp.Server
	version string
}

// NewRouter wires every route. The rate limiter is optional.
func NewRouter(svc *mcp.Server, limiter *RateLimiter, version string) *gin.Engine {
	registerValidators()

	h := &Handler{svc: svc, version: version}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig()))
	router.Use(logRequestMiddleware)
	if limiter != nil {
		router.Use(RateLimitMiddleware(limiter))
	}

	router.GET("/api/health", h.health)

	api := router.Group("/api", sessionMiddleware)
	api.POST("/risk-pool", h.riskPool)
	api.POST("/cohorts", h.cohorts)
	api.POST("/premium", h.premium)
	api.POST("/premium/compare", h.comparePremiums)
	api.POST("/resimulate/:component", h.resimulate)

	router.Any("/mcp", gin.WrapH(svc.HTTPHandler(version)))

	return router
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowHeaders = append(cfg.AllowHeaders, SessionHeader, "Mcp-Session-Id")
	cfg.ExposeHeaders = []string{SessionHeader, "Mcp-Session-Id"}
	return cfg
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"version":  h.version,
		"sessions": h.svc.Sessions().Len(),
	})
}

func (h *Handler) riskPool(c *gin.Context) {
	var args mcp.RiskPoolArgs
	if !bind(c, &args) {
		return
	}
	respond(c, func() (mcp.ResponseEnvelope, error) {
		return h.svc.HandleRiskPool(c.Request.Context(), sessionID(c), args)
	})
}

func (h *Handler) cohorts(c *gin.Context) {
	var args mcp.CohortArgs
	if !bind(c, &args) {
		return
	}
	respond(c, func() (mcp.ResponseEnvelope, error) {
		return h.svc.HandleCohorts(c.Request.Context(), sessionID(c), args)
	})
}

func (h *Handler) premium(c *gin.Context) {
	var args mcp.PremiumArgs
	if !bind(c, &args) {
		return
	}
	respond(c, func() (mcp.ResponseEnvelope, error) {
		return h.svc.HandlePremium(c.Request.Context(), sessionID(c), args)
	})
}

func (h *Handler) comparePremiums(c *gin.Context) {
	var args mcp.CohortArgs
	if !bind(c, &args) {
		return
	}
	respond(c, func() (mcp.ResponseEnvelope, error) {
		return h.svc.HandleComparePremiums(c.Request.Context(), sessionID(c), args)
	})
}

func (h *Handler) resimulate(c *gin.Context) {
	args := mcp.ResimulateArgs{Component: c.Param("component")}
	respond(c, func() (mcp.ResponseEnvelope, error) {
		return h.svc.HandleResimulate(c.Request.Context(), sessionID(c), args)
	})
}

func bind(c *gin.Context, args any) bool {
	if err := c.ShouldBindJSON(args); err != nil {
		returnErrorJsonCode(err, c, http.StatusBadRequest)
		return false
	}
	return true
}

func respond(c *gin.Context, run func() (mcp.ResponseEnvelope, error)) {
	env, err := run()
	if err != nil {
		if mcp.IsInputError(err) {
			returnErrorJsonCode(err, c, http.StatusUnprocessableEntity)
			return
		}
		log.Error().Err(err).Str("route", c.FullPath()).Msg("Request failed")
		returnErrorJsonCode(err, c, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, env)
}

func returnErrorJsonCode(err error, c *gin.Context, code int) {
	c.AbortWithStatusJSON(code, gin.H{
		"error": err.Error(),
	})
}
