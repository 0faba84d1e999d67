package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-ddd-auth-service/internal/interface/middleware"
)

type DebugModule struct {
	RDB redis.Cmdable
}

func NewDebugModule(rdb redis.Cmdable) *DebugModule { return &DebugModule{RDB: rdb} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// Prometheus exposition, rate-limited per IP; in-cluster scrapers bypass the limit
	rl := middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/debug/metrics", rl, gin.WrapH(promhttp.Handler()))
}
