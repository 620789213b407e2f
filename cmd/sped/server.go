package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/zoobzio/sped"
)

const shutdownTimeout = 10 * time.Second

// processRequest is the body of POST /v1/process.
type processRequest struct {
	Input   any            `json:"input" binding:"required"`
	Context map[string]any `json:"context"`
}

func newRouter(a *app) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1")
	v1.POST("/process", handleProcess(a.engine))
	v1.GET("/state", handleState(a.engine))
	v1.GET("/history", handleHistory(a.engine))
	v1.GET("/steps", handleSteps(a.tracker))
	v1.GET("/schema", handleSchema(a.engine))
	v1.GET("/states", handleStates(a.states))
	return router
}

func handleProcess(engine *sped.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req processRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result := engine.Process(c.Request.Context(), req.Input, req.Context)
		if result.Failed() {
			c.JSON(http.StatusUnprocessableEntity, result)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func handleState(engine *sped.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, engine.State(c.Request.Context()))
	}
}

func handleHistory(engine *sped.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"snapshots": engine.History()})
	}
}

func handleSteps(tracker *sped.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := make(map[string]sped.PathStats)
		for path, s := range tracker.Stats() {
			stats[path.String()] = s
		}
		c.JSON(http.StatusOK, gin.H{"steps": tracker.History(), "stats": stats})
	}
}

func handleSchema(engine *sped.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, engine.Schema())
	}
}

// handleStates reports the current fidelity of every kept state.
func handleStates(states *sped.StateStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		fidelity := states.Monitor(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"count": len(fidelity), "fidelity": fidelity})
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{configPath: configPath, mode: modeName, dsn: dsn, verbose: verbose})
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(a),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("sped listening", "addr", addr, "mode", a.engine.State(ctx).Mode.String())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("sped shutting down")
	return srv.Shutdown(shutdownCtx)
}
