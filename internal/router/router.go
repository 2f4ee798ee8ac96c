package router

import (
	"net/http"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/bank"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/config"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/contract"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/handler"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, factory *contract.CampaignFactory, memBank *bank.MemoryBank, cfg *config.Config) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "charity-platform",
		})
	})

	// 指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API版本组
	v1 := r.Group("/api/v1")
	if cfg.Server.RateLimit > 0 {
		v1.Use(rateLimitMiddleware(cfg.Server.RateLimit, cfg.Server.RateBurst))
	}
	{
		campaignHandler := handler.NewCampaignHandler(db, factory)
		donationHandler := handler.NewDonationHandler(db, factory)

		// 活动相关路由
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("", campaignHandler.ListCampaigns)
			campaigns.GET("/:uuid", campaignHandler.GetCampaign)
			campaigns.PUT("/:uuid", campaignHandler.EditCampaign)
			campaigns.POST("/:uuid/finalize", campaignHandler.FinalizeCampaign)
			campaigns.GET("/:uuid/stats", donationHandler.GetCampaignStats)
			campaigns.GET("/:uuid/leaderboard", donationHandler.GetLeaderboard)
			campaigns.POST("/:uuid/donations", donationHandler.Donate)
			campaigns.GET("/:uuid/donations", donationHandler.ListDonations)
			campaigns.POST("/:uuid/refunds", donationHandler.ClaimRefund)
			campaigns.GET("/:uuid/refunds", donationHandler.ListRefunds)
			campaigns.GET("/:uuid/contributions/:address", donationHandler.GetContribution)
			campaigns.GET("/:uuid/events", campaignHandler.ListCampaignEvents)
		}

		// 用户相关路由
		users := v1.Group("/users")
		{
			users.GET("/:address/campaigns", campaignHandler.GetUserCampaigns)
		}

		// 账本相关路由
		bankHandler := handler.NewBankHandler(memBank)
		bankGroup := v1.Group("/bank")
		{
			bankGroup.GET("/balances/:address", bankHandler.GetBalance)
			if cfg.Chain.FaucetEnabled {
				bankGroup.POST("/faucet", bankHandler.Faucet)
			}
		}

		// 平台统计
		v1.GET("/stats", campaignHandler.GetPlatformStats)
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// 限流中间件
func rateLimitMiddleware(rps, burst int) gin.HandlerFunc {
	if burst <= 0 {
		burst = rps
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "请求过于频繁，请稍后重试",
			})
			return
		}
		c.Next()
	}
}
