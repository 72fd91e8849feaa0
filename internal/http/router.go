package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rjoubert/tablebook/internal/auth"
	"github.com/rjoubert/tablebook/internal/config"
	"github.com/rjoubert/tablebook/internal/domain/user"
	"github.com/rjoubert/tablebook/internal/http/handlers"
	"github.com/rjoubert/tablebook/internal/http/middlewares"
	"github.com/rjoubert/tablebook/internal/observability"
	"github.com/rjoubert/tablebook/internal/queue"
	"github.com/rjoubert/tablebook/internal/queue/redisclient"
	"github.com/rjoubert/tablebook/internal/repo/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(log *slog.Logger, db *mongo.Database, rdb *redisclient.Client, prom *observability.Prom, promReg *prometheus.Registry, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(otelgin.Middleware("tablebook-api"))
	r.Use(prom.GinHandleMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.RequireJSON())

	// health
	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if db != nil {
			if err := db.Client().Ping(ctx, nil); err != nil {
				return err
			}
		}
		if rdb != nil {
			return rdb.Ping(ctx)
		}
		return nil
	}

	health := handlers.NewHealthHandler(ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))

	// wire up stores and handlers
	usersRepo := mongodb.NewUsersRepo(db, prom)
	reservationsRepo := mongodb.NewReservationsRepo(db, prom)

	tokens := auth.NewManager(cfg.JWTSecret, cfg.SessionTTL)
	producer := queue.NewProducer(rdb.Raw())

	authHandler := handlers.NewAuthHandler(usersRepo, tokens, cfg)
	reservationsHandler := handlers.NewReservationsHandler(reservationsRepo, producer, log)

	guard := middlewares.NewAuthMiddleware(tokens, usersRepo)
	authLimiter := middlewares.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)

	// public
	r.POST("/signup", authLimiter.Middleware(), authHandler.SignUp)
	r.POST("/login", authLimiter.Middleware(), authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	// session required
	session := r.Group("/", guard.RequireSession())
	{
		session.GET("/me", authHandler.Me)
		session.POST("/reservation/send", reservationsHandler.Create)
		session.GET("/reservations", reservationsHandler.List)
		session.DELETE("/reservations/:id", reservationsHandler.Cancel)
	}

	// admin only
	admin := r.Group("/admin", guard.RequireSession(), guard.RequireRole(user.RoleAdmin))
	{
		admin.GET("/reservations", reservationsHandler.AdminList)
	}

	return r
}
