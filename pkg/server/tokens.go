package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"fable/pkg/tokens"
)

type tokenCountReq struct {
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"` // "estimate" or "precise"
}

type tokenCountResp struct {
	Count int    `json:"count"`
	Model string `json:"model"`
}

// POST /api/tokens/count
func (s *Server) handlePostTokenCount(c echo.Context) error {
	var req tokenCountReq
	if err := c.Bind(&req); err != nil {
		log.Warn("invalid JSON in /api/tokens/count", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}

	mode := tokens.Precise
	model := tokens.EncodingModel
	if req.Mode == "estimate" {
		mode = tokens.Estimate
		model = "estimate"
	}

	count, err := s.Counter.Count(req.Text, mode)
	if err != nil {
		log.Error("token count failed", "mode", mode, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tokenCountResp{Count: count, Model: model})
}
