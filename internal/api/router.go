// Package api exposes the classification engine over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/tally/internal/mapping"
	"github.com/Veraticus/tally/internal/model"
	"github.com/gin-gonic/gin"
)

// Book is the transaction book served by the API.
type Book interface {
	Add(ctx context.Context, txns ...model.Transaction) int
	Transactions() []model.Transaction
	Transaction(id string) (model.Transaction, bool)
	Classify(txn model.Transaction) model.Result
	ApplyTags(ctx context.Context) int
	ForceReevaluateAll(ctx context.Context) int
	FixAllTagAssignments(ctx context.Context) int
	UpdateTransactionTag(ctx context.Context, id, tag, reason string) bool
}

// Learning is the learned-rule state served by the API.
type Learning interface {
	Snapshot() model.Snapshot
	Statistics() model.Statistics
	ExportLearnedRules() ([]byte, error)
	ImportLearnedRules(ctx context.Context, data []byte) error
	ClearLearnedData(ctx context.Context)
}

// Mappings is the tag mapping table served by the API.
type Mappings interface {
	Entries() []mapping.Entry
	Set(ctx context.Context, category, subcategory, tag string) error
}

// Router wires handlers onto a gin engine.
type Router struct {
	engine   *gin.Engine
	book     Book
	learning Learning
	mappings Mappings
	now      func() time.Time

	// maxImportBytes caps the body accepted by POST /learning/import.
	maxImportBytes int64
}

// NewRouter creates a router. mappings may be nil.
func NewRouter(book Book, learning Learning, mappings Mappings) *Router {
	return &Router{
		book:     book,
		learning: learning,
		mappings: mappings,
		now:      time.Now,

		maxImportBytes: DefaultMaxImportBytes,
	}
}

// Setup configures and returns the gin engine with all routes.
func (r *Router) Setup(mode string) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}

	r.engine = gin.New()
	r.engine.Use(gin.Recovery(), requestLogger())

	r.engine.GET("/health", r.health)
	r.engine.POST("/classify", r.classify)

	transactions := r.engine.Group("/transactions")
	{
		transactions.GET("", r.listTransactions)
		transactions.POST("", r.addTransactions)
		transactions.GET("/:id", r.getTransaction)
		transactions.PUT("/:id/tag", r.updateTag)
		transactions.POST("/apply", r.applyTags)
		transactions.POST("/reevaluate", r.reevaluate)
		transactions.POST("/fix", r.fixTags)
	}

	learning := r.engine.Group("/learning")
	{
		learning.GET("/rules", r.listRules)
		learning.GET("/export", r.exportLearning)
		learning.POST("/import", r.importLearning)
		learning.DELETE("", r.clearLearning)
	}

	if r.mappings != nil {
		mappings := r.engine.Group("/mappings")
		{
			mappings.GET("", r.listMappings)
			mappings.PUT("", r.setMapping)
		}
	}

	return r.engine
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (r *Router) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: r.now().UTC().Format(time.RFC3339),
	})
}
