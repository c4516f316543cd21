package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/quantwiki/quantwiki/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	// Unclassified errors never leak their internals to the client.
	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: utils.SafeMessage(err),
	})
}
