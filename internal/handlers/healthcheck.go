package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/aria-backend/internal/clients/redis"
)

type HealthHandler struct {
	pingDB      func() error
	revocations redis.RevocationList
}

func NewHealthHandler(pingDB func() error, revocations redis.RevocationList) *HealthHandler {
	return &HealthHandler{pingDB: pingDB, revocations: revocations}
}

// HealthCheck reports liveness plus store connectivity; the probes run
// concurrently and each failure only flips its own flag.
func (hh *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	dbOK := false
	redisStatus := "disabled"

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if hh.pingDB != nil && hh.pingDB() == nil {
			dbOK = true
		}
		return nil
	})
	g.Go(func() error {
		if hh.revocations == nil {
			return nil
		}
		if err := hh.revocations.Ping(gctx); err != nil {
			redisStatus = "down"
		} else {
			redisStatus = "up"
		}
		return nil
	})
	_ = g.Wait()

	RespondOK(c, gin.H{
		"status":   "ok",
		"database": dbOK,
		"redis":    redisStatus,
	})
}
