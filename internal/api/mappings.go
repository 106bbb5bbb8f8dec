package api

import (
	"errors"
	"net/http"

	"github.com/Veraticus/tally/internal/common"
	"github.com/gin-gonic/gin"
)

func (r *Router) listMappings(c *gin.Context) {
	c.JSON(http.StatusOK, r.mappings.Entries())
}

// setMapping handles PUT /mappings.
func (r *Router) setMapping(c *gin.Context) {
	var req MappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}

	if err := r.mappings.Set(c.Request.Context(), req.Category, req.Subcategory, req.Tag); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, common.ErrInvalidTag) || errors.Is(err, common.ErrInvalidConfig) {
			status = http.StatusBadRequest
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, r.mappings.Entries())
}
