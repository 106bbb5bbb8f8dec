package api

import (
	"net/http"
	"strings"

	"github.com/Veraticus/tally/internal/model"
	"github.com/gin-gonic/gin"
)

// classify handles POST /classify. The transaction is not added to the book.
func (r *Router) classify(c *gin.Context) {
	var txn model.Transaction
	if err := c.ShouldBindJSON(&txn); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid transaction: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, r.book.Classify(txn))
}

// listTransactions handles GET /transactions, optionally filtered by ?tag=.
func (r *Router) listTransactions(c *gin.Context) {
	txns := r.book.Transactions()

	if filter := c.Query("tag"); filter != "" {
		tag, ok := model.NormalizeTag(filter)
		if !ok {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown tag: " + filter})
			return
		}
		filtered := txns[:0]
		for _, txn := range txns {
			if strings.EqualFold(txn.Tag, tag) {
				filtered = append(filtered, txn)
			}
		}
		txns = filtered
	}

	c.JSON(http.StatusOK, TransactionsResponse{Transactions: txns, Total: len(txns)})
}

// addTransactions handles POST /transactions with a JSON array body.
func (r *Router) addTransactions(c *gin.Context) {
	var txns []model.Transaction
	if err := c.ShouldBindJSON(&txns); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid transactions: " + err.Error()})
		return
	}
	added := r.book.Add(c.Request.Context(), txns...)
	c.JSON(http.StatusOK, AddTransactionsResponse{Added: added, Duplicates: len(txns) - added})
}

// getTransaction handles GET /transactions/:id.
func (r *Router) getTransaction(c *gin.Context) {
	txn, ok := r.book.Transaction(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Transaction not found"})
		return
	}
	c.JSON(http.StatusOK, txn)
}

// updateTag handles PUT /transactions/:id/tag.
func (r *Router) updateTag(c *gin.Context) {
	id := c.Param("id")

	var req UpdateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}
	if _, ok := model.NormalizeTag(req.Tag); !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown tag: " + req.Tag})
		return
	}

	if !r.book.UpdateTransactionTag(c.Request.Context(), id, req.Tag, req.Reason) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Transaction not found"})
		return
	}

	txn, _ := r.book.Transaction(id)
	c.JSON(http.StatusOK, txn)
}

func (r *Router) applyTags(c *gin.Context) {
	c.JSON(http.StatusOK, BatchResponse{Changed: r.book.ApplyTags(c.Request.Context())})
}

func (r *Router) reevaluate(c *gin.Context) {
	c.JSON(http.StatusOK, BatchResponse{Changed: r.book.ForceReevaluateAll(c.Request.Context())})
}

func (r *Router) fixTags(c *gin.Context) {
	c.JSON(http.StatusOK, BatchResponse{Changed: r.book.FixAllTagAssignments(c.Request.Context())})
}
