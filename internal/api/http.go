package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dreamer-zq/savekit/internal/savedata"
	"github.com/dreamer-zq/savekit/version"
)

// Error codes returned in ErrorResponse.Code
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeUnreadable   = "UNREADABLE"
	CodeSaveFailed   = "SAVE_FAILED"
	CodeDeleteFailed = "DELETE_FAILED"
	CodeListFailed   = "LIST_FAILED"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SlotResponse is returned by PUT and GET on a slot
type SlotResponse struct {
	Key           string `json:"key"`
	Value         any    `json:"value,omitempty"`
	SchemaVersion int    `json:"schema_version"`
}

// ListResponse is returned by the list endpoint
type ListResponse struct {
	Keys []string `json:"keys"`
}

// HealthResponse is returned by /health
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version,omitempty"`
	SchemaVersion int    `json:"schema_version"`
}

func (s *Server) setupHTTPRoutes(router *gin.Engine) {
	router.GET(HealthPath, s.healthHandler)
	if s.gatherer != nil {
		router.GET(MetricsPath, gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group(APIVersionPrefix)
	api.Use(HTTPAuthMiddleware(s.auth, s.logger))
	{
		api.GET(SlotsPath, s.listSlotsHandler)
		api.PUT(SlotPathPattern, s.putSlotHandler)
		api.GET(SlotPathPattern, s.getSlotHandler)
		api.HEAD(SlotPathPattern, s.headSlotHandler)
		api.DELETE(SlotPathPattern, s.deleteSlotHandler)
	}
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:        "healthy",
		Version:       version.Version,
		SchemaVersion: s.saves.SchemaVersion(),
	})
}

// putSlotHandler saves the JSON request body under the slot key. Numbers are
// kept as json.Number so large integers are stored digit for digit.
func (s *Server) putSlotHandler(c *gin.Context) {
	key := c.Param("key")

	var value any
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeBadRequest})
		return
	}

	if err := s.saves.Save(c.Request.Context(), key, value); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, savedata.ErrInvalidKey) || errors.Is(err, savedata.ErrEncode) {
			status = http.StatusBadRequest
		}
		s.logger.Error("Failed to save slot", zap.String("key", key), zap.Error(err))
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: CodeSaveFailed})
		return
	}

	c.JSON(http.StatusOK, SlotResponse{Key: key, SchemaVersion: s.saves.SchemaVersion()})
}

// getSlotHandler answers 404 for every load failure, missing or unreadable,
// and tells them apart by code
func (s *Server) getSlotHandler(c *gin.Context) {
	key := c.Param("key")

	value, err := savedata.TryLoad[any](c.Request.Context(), s.saves, key)
	if err != nil {
		code := CodeUnreadable
		if errors.Is(err, savedata.ErrNotFound) {
			code = CodeNotFound
		}
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	c.JSON(http.StatusOK, SlotResponse{Key: key, Value: value, SchemaVersion: s.saves.SchemaVersion()})
}

func (s *Server) headSlotHandler(c *gin.Context) {
	if s.saves.Exists(c.Request.Context(), c.Param("key")) {
		c.Status(http.StatusOK)
		return
	}
	c.Status(http.StatusNotFound)
}

func (s *Server) deleteSlotHandler(c *gin.Context) {
	key := c.Param("key")
	if err := s.saves.Delete(c.Request.Context(), key); err != nil {
		s.logger.Error("Failed to delete slot", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: CodeDeleteFailed})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listSlotsHandler(c *gin.Context) {
	keys, err := s.saves.List(c.Request.Context(), c.Query("prefix"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: CodeListFailed})
		return
	}
	if keys == nil {
		keys = []string{}
	}
	c.JSON(http.StatusOK, ListResponse{Keys: keys})
}
