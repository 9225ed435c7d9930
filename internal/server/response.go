package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperr "github.com/dexgate-labs/dexgate/internal/errors"
)

type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, response{Success: false, Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	fail(c, http.StatusBadRequest, msg)
}

// failTyped maps the error taxonomy onto HTTP statuses. Quote-style
// operations are the only ones that reach here; browsing endpoints
// degrade to empty data instead.
func failTyped(c *gin.Context, err error) {
	switch apperr.CodeOf(err) {
	case apperr.CodeUsage:
		badRequest(c, err.Error())
	case apperr.CodeNoLiquidity:
		fail(c, http.StatusNotFound, "no liquidity for this pair")
	case apperr.CodeRejected:
		fail(c, http.StatusBadGateway, "upstream rejected the request")
	case apperr.CodeAuth, apperr.CodeRateLimited, apperr.CodeUnavailable:
		fail(c, http.StatusBadGateway, "upstream unavailable")
	default:
		fail(c, http.StatusInternalServerError, "internal error")
	}
}
