package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alimponya/clinic-portal/internal/app/templates"
)

// SetupAssets configures static asset serving for the Gin router
func SetupAssets(r *gin.Engine) error {
	staticFiles, err := templates.Static()
	if err != nil {
		return err
	}
	r.StaticFS("/static", http.FS(staticFiles))
	return nil
}
