package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/Veraticus/tally/internal/common"
	"github.com/gin-gonic/gin"
)

// DefaultMaxImportBytes is the largest learning export accepted by the import endpoint.
const DefaultMaxImportBytes = 16 << 20

// listRules handles GET /learning/rules.
func (r *Router) listRules(c *gin.Context) {
	snapshot := r.learning.Snapshot()
	c.JSON(http.StatusOK, RulesResponse{
		Rules:      snapshot.Rules,
		Statistics: r.learning.Statistics(),
		Version:    snapshot.Version,
	})
}

// exportLearning handles GET /learning/export.
func (r *Router) exportLearning(c *gin.Context) {
	data, err := r.learning.ExportLearnedRules()
	if err != nil {
		common.LogError(err, "Failed to export learning state", nil)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to export learning state"})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// importLearning handles POST /learning/import. The body is an export document.
func (r *Router) importLearning(c *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, r.maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.LogWarn(err, "Rejected oversized learning import", common.Fields{"limit": tooLarge.Limit})
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read request body"})
		return
	}

	if err := r.learning.ImportLearnedRules(c.Request.Context(), data); err != nil {
		if errors.Is(err, common.ErrInvalidSnapshot) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		common.LogError(err, "Failed to import learning state", common.Fields{"bytes": len(data)})
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to import learning state"})
		return
	}

	r.listRules(c)
}

// clearLearning handles DELETE /learning.
func (r *Router) clearLearning(c *gin.Context) {
	r.learning.ClearLearnedData(c.Request.Context())
	c.Status(http.StatusNoContent)
}
