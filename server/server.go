// Package server exposes a learnt hedging policy over HTTP
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/zeu5/hedge-rl/hedge"
	"github.com/zeu5/hedge-rl/market"
	"github.com/zeu5/hedge-rl/policies"
	"github.com/zeu5/hedge-rl/store"
)

type actionRequest struct {
	Observation []int `json:"observation" binding:"required"`
}

type actionResponse struct {
	Action  int       `json:"action"`
	Name    string    `json:"name"`
	QValues []float64 `json:"q_values"`
}

type reloadRequest struct {
	Name string `json:"name" binding:"required"`
}

// Server answers greedy action queries against a Q-table
type Server struct {
	Addr string

	policy *policies.GreedyPolicy
	option market.Option
	store  store.Store
	log    zerolog.Logger

	router *gin.Engine
	server *http.Server
}

// New creates the server. The store is optional, without it tables cannot be reloaded.
func New(addr string, policy *policies.GreedyPolicy, option market.Option, st store.Store, log zerolog.Logger) *Server {
	s := &Server{
		Addr:   addr,
		policy: policy,
		option: option,
		store:  st,
		log:    log,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", healthz)
	r.GET("/table", s.handleTable)
	r.GET("/delta", s.handleDelta)
	r.POST("/action", s.handleAction)
	r.POST("/reload", s.handleReload)
	s.router = r
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// Handler of the server, for embedding or tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *Server) handleTable(c *gin.Context) {
	table := s.policy.Table()
	c.JSON(http.StatusOK, gin.H{
		"observation_dims": table.ObservationDims(),
		"actions":          table.Actions(),
	})
}

func (s *Server) handleAction(c *gin.Context) {
	req := actionRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}
	i, values, err := s.policy.Best(req.Observation)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, actionResponse{
		Action:  i,
		Name:    hedge.Action(i).Hash(),
		QValues: values,
	})
}

func (s *Server) handleDelta(c *gin.Context) {
	price, err := strconv.ParseFloat(c.Query("price"), 64)
	if err != nil || price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be a positive number"})
		return
	}
	days, err := strconv.Atoi(c.Query("days"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"price": price,
		"days":  days,
		"delta": s.option.Delta(price, days),
	})
}

func (s *Server) handleReload(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "no table store configured"})
		return
	}
	req := reloadRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}
	table, err := s.store.Load(c.Request.Context(), req.Name)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("table", req.Name).Msg("failed to load table")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	current := s.policy.Table()
	if !sameShape(current, table) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "table shape does not match the environment"})
		return
	}
	s.policy.SetTable(table)
	s.log.Info().Str("table", req.Name).Msg("table reloaded")
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func sameShape(a, b *policies.QTable) bool {
	sa, sb := a.Shape(), b.Shape()
	if len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

// Run serves until the context is cancelled
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.Addr).Msg("serving policy")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
