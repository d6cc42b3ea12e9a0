package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/medflowai/medflow-api/internal/domain"
	"github.com/medflowai/medflow-api/internal/email"
)

// createPredictionRequest is the POST /predictions body. output is
// optional: callers that already ran inference persist its result,
// everyone else gets the placeholder.
type createPredictionRequest struct {
	UserID    string         `json:"userId"`
	ModelType string         `json:"modelType"`
	Input     map[string]any `json:"input"`
	Output    any            `json:"output"`
}

// handleCreatePrediction handles POST /predictions
func (s *Server) handleCreatePrediction(c *gin.Context) {
	var req createPredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	record, err := s.predictions.Create(c.Request.Context(), req.UserID, req.ModelType, req.Input, req.Output)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
		case errors.Is(err, domain.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Duplicate predictionId detected"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create prediction"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"userId":       record.UserID,
		"predictionId": record.PredictionID,
		"output":       record.Output,
		"createdAt":    record.CreatedAt,
	})
}

// handleListPredictions handles GET /predictions/:userId
func (s *Server) handleListPredictions(c *gin.Context) {
	userID := c.Param("userId")
	modelType := c.Query("modelType")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := s.predictions.List(c.Request.Context(), userID, modelType, limit)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch predictions"})
		return
	}

	c.JSON(http.StatusOK, records)
}

// handleGetPrediction handles GET /predictions/:userId/:predictionId
func (s *Server) handleGetPrediction(c *gin.Context) {
	record, err := s.predictions.Get(c.Request.Context(), c.Param("userId"), c.Param("predictionId"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch prediction"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// handleModelTest handles GET /model/test
func (s *Server) handleModelTest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Works"})
}

// handleSendData handles POST /model/sendData: validate the feature
// form, forward it to the inference service and relay the outcome.
func (s *Server) handleSendData(c *gin.Context) {
	var form map[string]any
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON body"})
		return
	}

	result, err := s.inference.Forward(c.Request.Context(), form)
	if err != nil {
		var verr *domain.ValidationError
		var uerr *domain.UpstreamError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Missing required fields: " + strings.Join(verr.Fields, ", "),
			})
		case errors.As(err, &uerr):
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error":   "inference service error",
				"details": uerr.Details,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Internal Server Error",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "prediction": result.Prediction})
}

// handleSendEmail handles POST /sendEmail
func (s *Server) handleSendEmail(c *gin.Context) {
	var msg email.ContactMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	messageID, err := s.email.Send(c.Request.Context(), msg)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
			return
		}
		s.log.WithFields(logrus.Fields{"error": err}).Error("Contact email failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email sent", "messageId": messageID})
}
