package health

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Router serves the liveness endpoints hosting platforms poll.
func Router(now func() time.Time) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	status := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   now().UTC().Format(time.RFC3339),
		})
	}
	r.GET("/health", status)
	r.GET("/healthz", status)

	return r
}

type Server struct {
	srv *http.Server
}

func NewServer(port int) *Server {
	return &Server{srv: &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           Router(time.Now),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Start listens in the background. Listen errors other than a clean
// shutdown are logged.
func (s *Server) Start() {
	go func() {
		log.Printf("Health server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[health] listen: %v", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
