package server

import (
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// newPprofRouter builds the standalone engine carrying the profiler routes.
func newPprofRouter() *gin.Engine {
	r := gin.New()
	pprof.Register(r)
	return r
}

// StartPprofServer starts the pprof server on a separate port
// This should only be accessible internally or via SSH tunnel
func StartPprofServer(addr string, logger *zap.Logger) {
	pprofRouter := newPprofRouter()

	go func() {
		logger.Info("Starting pprof server", zap.String("addr", addr))
		if err := pprofRouter.Run(addr); err != nil {
			logger.Fatal("Failed to start pprof server", zap.Error(err))
		}
	}()
}
