package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:4200",
	"http://localhost:8080",
	"http://localhost:9000",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:4200",
	"http://127.0.0.1:8080",
	"http://127.0.0.1:9000",
}

// CORS allows the given origins, or the local dev origins when none are set.
func CORS(origins ...string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "If-Match", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Total-Count", "Link", "ETag", "X-Storefront-Alert", "X-Storefront-Params", "X-Storefront-Error", "X-Request-Id", "X-Trace-Id"},
		AllowCredentials: true,
	})
}
