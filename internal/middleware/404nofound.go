package middleware

import (
	"github.com/haierkeys/wicky/pkg/app"
	"github.com/haierkeys/wicky/pkg/code"

	"github.com/gin-gonic/gin"
)

// NoFound answers unknown routes with the not-found code and the requested route as detail.
func NoFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		app.NewResponse(c).ToResponse(code.ErrorNotFoundAPI.WithDetails(c.Request.Method + " " + c.Request.URL.Path))
		c.Abort()
	}
}
