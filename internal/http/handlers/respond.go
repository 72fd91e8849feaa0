package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every failure leaves through one of these helpers so the envelope is the
// same everywhere: {"success": false, "message": ...}. Validation failures
// additionally carry field-level details under "errors".
func RespondError(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	if details == nil {
		RespondError(ctx, http.StatusBadRequest, message)
		return
	}

	ctx.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": message,
		"errors":  details,
	})
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, message)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, message)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message)
}

func RespondConflict(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusConflict, message)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, message)
}
