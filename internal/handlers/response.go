package handlers

import (
	"strconv"

	"farm_store/internal/errs"

	"github.com/gin-gonic/gin"
)

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// fail maps err onto its HTTP status and records it for the request logger.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(errs.HTTPStatus(err), gin.H{
		"success": false,
		"error":   errs.PublicMessage(err),
	})
}

func badRequest(c *gin.Context, op, msg string) {
	fail(c, errs.Validation(op, msg))
}

func parseID(c *gin.Context, op string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, op, "invalid id")
		return 0, false
	}
	return uint(id), true
}
