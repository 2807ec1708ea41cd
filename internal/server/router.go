package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/simbunathan/ocr-app/internal/auth"
	"github.com/simbunathan/ocr-app/internal/storage"
)

// NewRouter builds the gin engine with all routes wired.
func NewRouter(h *Handlers, tokens *auth.TokenManager, store storage.Store, uploadDir string) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())
	r.MaxMultipartMemory = 16 << 20

	r.GET("/health", func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Uploaded images are served back for the scanner preview.
	r.Static("/uploads", uploadDir)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)

	ocrGroup := api.Group("/ocr")
	ocrGroup.Use(AuthRequired(tokens))
	ocrGroup.POST("/process", h.Process)
	ocrGroup.GET("/history", h.History)
	ocrGroup.DELETE("/record/:id", h.DeleteRecord)
	ocrGroup.GET("/export/pdf/:id", h.ExportPDF)
	ocrGroup.GET("/export/excel/:id", h.ExportExcel)

	return r
}
