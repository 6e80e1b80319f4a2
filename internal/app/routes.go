package app

import (
	"net/http"
	"time"

	_ "todoapi/docs"
	"todoapi/internal/config"
	"todoapi/internal/handlers"
	"todoapi/internal/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

var startedAt = time.Now()

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, svc handlers.TodoService) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler())
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))

	api := r.Group("/api")
	registerTodoRoutes(api, handlers.NewTodoHandler(svc))
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Todo API Server",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"endpoints": gin.H{
				"GET /health":           "Health check",
				"GET /api/todos":        "Get all todos",
				"GET /api/todos/:id":    "Get todo by ID",
				"POST /api/todos":       "Create new todo",
				"PUT /api/todos/:id":    "Update todo by ID",
				"DELETE /api/todos/:id": "Delete todo by ID",
			},
		})
	}
}

func healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			"uptime":    time.Since(startedAt).Seconds(),
		})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerTodoRoutes(api *gin.RouterGroup, h *handlers.TodoHandler) {
	api.GET("/todos", h.List)
	api.POST("/todos", middleware.ValidateCreate(), h.Create)
	api.GET("/todos/:id", middleware.ValidateID(), h.GetByID)
	api.PUT("/todos/:id", middleware.ValidateID(), middleware.ValidateUpdate(), h.Update)
	api.DELETE("/todos/:id", middleware.ValidateID(), h.Delete)
}
