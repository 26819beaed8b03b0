package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aescanero/cascade/internal/application/orchestrator"
	"github.com/aescanero/cascade/pkg/report"
)

// RunSubmitRequest represents a run submission request.
type RunSubmitRequest struct {
	Task string `json:"task" binding:"required"`
}

// RunSubmitResponse represents a run submission response.
type RunSubmitResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"checks": gin.H{
			"orchestrator": "ok",
		},
	})
}

// handleSubmitRun handles run submission.
func (s *Server) handleSubmitRun(c *gin.Context) {
	var req RunSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Error("invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_REQUEST", err.Error()))
		return
	}

	runID, err := s.manager.SubmitRun(c.Request.Context(), req.Task)
	if err != nil {
		s.logger.Error("failed to submit run", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, errorResponse("SUBMISSION_FAILED", err.Error()))
		return
	}

	c.JSON(http.StatusCreated, RunSubmitResponse{
		RunID:  runID,
		Status: "submitted",
	})
}

// handleListRuns lists the IDs of stored run results.
func (s *Server) handleListRuns(c *gin.Context) {
	ids, err := s.manager.ListRuns(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("LIST_FAILED", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  ids,
		"total": len(ids),
	})
}

// handleGetStatus returns the lifecycle state of a run.
func (s *Server) handleGetStatus(c *gin.Context) {
	runID := c.Param("id")

	info, err := s.manager.GetStatus(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse("NOT_FOUND", "Run not found"))
		return
	}

	c.JSON(http.StatusOK, info)
}

// handleGetResult returns the full result of a terminal run.
func (s *Server) handleGetResult(c *gin.Context) {
	runID := c.Param("id")

	info, err := s.manager.GetStatus(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse("NOT_FOUND", "Run not found"))
		return
	}
	if info.State == orchestrator.RunStateRunning {
		c.JSON(http.StatusConflict, errorResponse("NOT_COMPLETED", "Run not yet completed"))
		return
	}

	result, err := s.manager.GetResult(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse("NOT_FOUND", "Result not found"))
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleGetReport renders the run's result as markdown.
func (s *Server) handleGetReport(c *gin.Context) {
	runID := c.Param("id")

	result, err := s.manager.GetResult(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse("NOT_FOUND", "Result not found"))
		return
	}

	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Markdown(result)))
}

// handleCancelRun cancels an in-flight run.
func (s *Server) handleCancelRun(c *gin.Context) {
	runID := c.Param("id")

	if err := s.manager.CancelRun(c.Request.Context(), runID); err != nil {
		c.JSON(http.StatusConflict, errorResponse("CANCEL_FAILED", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id": runID,
		"status": "cancelling",
	})
}
