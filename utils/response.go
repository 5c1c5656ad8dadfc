package utils

import "github.com/gin-gonic/gin"

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, 200, 0, T(Locale(ctx), "ok"), data)
}

// Error returns a standard error response. key is looked up in the message
// catalog for the caller's locale and used verbatim when not found.
func Error(ctx *gin.Context, status int, code int, key string) {
	Respond(ctx, status, code, T(Locale(ctx), key), nil)
}
