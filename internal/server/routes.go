package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "0.1.0"

func (a *Admin) RegisterRoutes() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(a.Appeared).String(),
			"service": a.Service,
			"version": version,
		})
	})

	a.router.GET("/ready", func(c *gin.Context) {
		status := http.StatusOK
		ready := a.ready()
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":   ready,
			"uptime":  time.Since(a.Appeared).String(),
			"service": a.Service,
			"version": version,
		})
	})

	a.router.GET("/stats", func(c *gin.Context) {
		if a.stats == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "receiver not running"})
			return
		}
		cfg := a.stats.Config()
		c.JSON(http.StatusOK, gin.H{
			"source": cfg.Name,
			"limits": gin.H{
				"max_packet_size":           cfg.Limits.MaxPacketSize,
				"min_inter_packet_delay_us": cfg.Limits.MinInterPacketDelay.Microseconds(),
			},
			"stats": a.stats.Stats(),
		})
	})

	a.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
