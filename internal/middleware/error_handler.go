package middleware

import (
	apiError "topicslog/internal/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func ErrorHandler(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next() // Execute the handler first

		// detect any errors
		if len(c.Errors) > 0 {
			appErr := apiError.From(c.Errors.Last().Err)

			if appErr.Status >= 500 {
				logger.Errorw("request failed", "path", c.FullPath(), "kind", appErr.Kind, "error", appErr.Err)
			} else {
				logger.Infow(appErr.Message, "path", c.FullPath(), "kind", appErr.Kind, "error", appErr.Err)
			}

			c.AbortWithStatusJSON(appErr.Status, appErr)
		}
	}
}
