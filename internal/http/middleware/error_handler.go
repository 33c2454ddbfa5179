package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/immo-backend/internal/logger"
	"github.com/ignatzorin/immo-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно: AppError движков
// превращается в штатный ответ со своим кодом, всё остальное
// маскируется как внутренняя ошибка.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Code == apperror.ErrCodeTransactionFailed || appErr.Code == apperror.ErrCodeInternal {
				// Детали внутренних отказов наружу не отдаём.
				logError(c, err)
				c.JSON(appErr.HTTPStatus, gin.H{"error": "внутренняя ошибка сервера", "code": appErr.Code})
				return
			}
			c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message, "code": appErr.Code})
			return
		}

		logError(c, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка сервера"})
	}
}

func logError(c *gin.Context, err error) {
	if logger.Log == nil {
		return
	}
	logger.Log.WithFields(logrus.Fields{
		"error":  err.Error(),
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).Error("Request error")
}
