// Package server exposes stored investigations over a read-only HTTP API.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dazzyddos/OSINT-AI-Agent/internal/checkpoint"
)

// Server serves checkpointed investigation state. It never mutates the
// store.
type Server struct {
	store  checkpoint.Store
	engine *gin.Engine
}

func New(store checkpoint.Store) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		store:  store,
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery())

	api := s.engine.Group("/api")
	api.GET("/investigations", s.listInvestigations)
	api.GET("/investigations/:id", s.getInvestigation)
	api.GET("/investigations/:id/report", s.getReport)

	return s
}

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) listInvestigations(c *gin.Context) {
	entries, err := s.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"investigations": entries})
}

func (s *Server) getInvestigation(c *gin.Context) {
	inv, err := s.store.Load(c.Request.Context(), c.Param("id"))
	if errors.Is(err, checkpoint.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "investigation not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) getReport(c *gin.Context) {
	inv, err := s.store.Load(c.Request.Context(), c.Param("id"))
	if errors.Is(err, checkpoint.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "investigation not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if inv.Report == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no report generated for this investigation"})
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(inv.Report))
}
