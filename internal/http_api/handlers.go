package http_api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/patronus-pay/patronus/internal/models"
	"github.com/patronus-pay/patronus/pkg/validation"
)

// TransferRequest represents the JSON body for submitting a transfer
type TransferRequest struct {
	Recipient string `json:"recipient" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Asset     string `json:"asset" binding:"required"`
}

// submitTransfer is a handler for the POST /api/v1/transfer endpoint.
// Malformed requests are rejected here; everything past this point comes
// back as a SettlementOutcome, success flag included.
func (s *HTTPServer) submitTransfer(c *gin.Context) {
	var req TransferRequest

	// Parse and validate JSON request body
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}

	// Validate address format up front so malformed requests never reach
	// the submission flow; the checksummed form is what gets persisted
	recipient, err := validation.ValidateAndNormalizeAddress(req.Recipient)
	if err != nil {
		s.logger.Debug("Invalid recipient address", "error", err, "address", req.Recipient)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid recipient address: " + err.Error(),
		})
		return
	}

	if err := validation.ValidateAmount(req.Amount); err != nil {
		s.logger.Debug("Invalid amount", "error", err, "amount", req.Amount)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid amount: " + err.Error(),
		})
		return
	}

	intent := models.TransferIntent{
		Sender:    s.accountAddress,
		Recipient: recipient,
		Amount:    req.Amount,
		Asset:     req.Asset,
	}

	outcome := s.patronus.SubmitTransfer(c.Request.Context(), intent)
	c.JSON(http.StatusOK, outcome)
}

// listTransfers is a handler for the GET /api/v1/transfers endpoint.
func (s *HTTPServer) listTransfers(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		address = s.accountAddress
	}

	if err := validation.ValidateAddress(address); err != nil {
		s.logger.Debug("Invalid address", "error", err, "address", address)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address format: " + err.Error()})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	records, err := s.patronus.TransfersFor(address, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get transfers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfers": records})
}

// listFailures is a handler for the GET /api/v1/failures endpoint. It
// returns the failed transfer attempts of the last 24 hours by default; the
// hours query parameter widens or narrows the window.
func (s *HTTPServer) listFailures(c *gin.Context) {
	hours := 24
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 24*7 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hours"})
			return
		}
		hours = parsed
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour).Unix()
	records, err := s.patronus.RecentFailures(since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get failures"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"failures": records})
}

// listAssets is a handler for the GET /api/v1/assets endpoint.
func (s *HTTPServer) listAssets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"assets": s.patronus.Assets()})
}

// health is a handler for the GET /healthz endpoint.
func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
