package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/roach88/parttrack/internal/tracker"
)

// CodeBadRequest marks a request body that could not be decoded.
const CodeBadRequest = "BAD_REQUEST"

type allocateRequest struct {
	Kind  string `json:"kind" binding:"required"`
	Count int    `json:"count" binding:"required,min=1"`
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.tracker.Ping(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleChains(c *gin.Context) {
	set, err := s.tracker.BuildChains(c.Request.Context(), c.Query("part"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, set)
}

func (s *Server) handleDuplicates(c *gin.Context) {
	dups, err := s.tracker.DuplicateReport(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"duplicates": dups})
}

func (s *Server) handleLastUpdate(c *gin.Context) {
	ts, err := s.tracker.LastUpdateTimestamp(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"last_update": ts})
}

func (s *Server) handleHistory(c *gin.Context) {
	events, err := s.tracker.History(c.Request.Context(), c.Param("part"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleConnect(c *gin.Context) {
	var req tracker.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rows, err := s.tracker.RecordConnection(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"events": rows})
}

func (s *Server) handleDisconnect(c *gin.Context) {
	var req tracker.DisconnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rows, err := s.tracker.RecordDisconnection(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"events": rows})
}

func (s *Server) handleAllocate(c *gin.Context) {
	var req allocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	allocated, err := s.tracker.AllocateParts(c.Request.Context(), req.Kind, req.Count)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"parts": allocated})
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   err.Error(),
		"code":    CodeBadRequest,
	})
}

// fail maps a tracker error to its HTTP status.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	code := tracker.CodeOf(err)
	if code == "" {
		code = tracker.CodeStorageFailure
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}

func statusFor(err error) int {
	switch tracker.KindOf(err) {
	case tracker.KindValidation:
		return http.StatusBadRequest
	case tracker.KindNotFound:
		return http.StatusNotFound
	case tracker.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

