package api

import (
	"net/http"

	"github.com/nu7hatch/gouuid"
	"go.uber.org/zap"
)

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := ""
		if u, err := uuid.NewV4(); err == nil {
			requestId = u.String()
		}

		zap.L().With(
			zap.String("requestId", requestId),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		).Debug("Api: Request")

		next.ServeHTTP(w, r)
	})
}
