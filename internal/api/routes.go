package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"vehicle-financing/backend/internal/advisor"
	"vehicle-financing/backend/internal/cache"
	"vehicle-financing/backend/internal/checkout"
	"vehicle-financing/backend/internal/pricing"
	"vehicle-financing/backend/internal/rules"
	"vehicle-financing/backend/internal/store"
)

// Config defines server dependencies.
type Config struct {
	CatalogPath         string
	DBPath              string
	AllowedOrigins      []string
	SilentDB            bool
	AdvisorConfig       advisor.Config
	DisableAdvisor      bool
	CheckoutConfig      checkout.Config
	RedisAddr           string
	CacheTTL            time.Duration
	RateLimit           int
	RateWindow          time.Duration
	RequireSubscription bool
}

// Server wires HTTP handlers with the pricing engine, persistence, and the
// boundary collaborators.
type Server struct {
	db             *store.Database
	engine         *pricing.Engine
	estimateCache  cache.Cache
	cacheTTL       time.Duration
	catalogVersion string
	advisor        advisor.Advisor
	checkout       *checkout.Client
	notifier       *EstimateNotifier
	allowedOrigins []string
	limiter        *RateLimiter
	requireSub     bool
}

const defaultCacheTTL = 15 * time.Minute

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path required")
	}

	catalog, err := rules.Resolve(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	engine, err := pricing.NewEngine(catalog)
	if err != nil {
		return nil, fmt.Errorf("pricing engine: %w", err)
	}

	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	var agent advisor.Advisor
	if cfg.DisableAdvisor {
		logrus.Info("negotiation advisor disabled via configuration")
	} else if client, err := advisor.NewClient(cfg.AdvisorConfig); err == nil {
		agent = client
	} else if errors.Is(err, advisor.ErrDisabled) {
		logrus.Info("negotiation advisor disabled - no API key configured")
	} else {
		return nil, fmt.Errorf("advisor client: %w", err)
	}

	var checkoutClient *checkout.Client
	if client, err := checkout.NewClient(cfg.CheckoutConfig); err == nil {
		checkoutClient = client
		logrus.Info("checkout sessions enabled")
	} else if errors.Is(err, checkout.ErrMissingCredentials) {
		logrus.Info("checkout disabled - no API key configured")
	} else {
		return nil, fmt.Errorf("checkout client: %w", err)
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	var estimateCache cache.Cache = cache.NewMemory()
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedis(cfg.RedisAddr)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisCache.Ping(ctx); err != nil {
			logrus.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unreachable, using in-memory estimate cache")
		} else {
			estimateCache = redisCache
			logrus.WithField("addr", cfg.RedisAddr).Info("redis estimate cache enabled")
		}
		cancel()
	}

	var limiter *RateLimiter
	if cfg.RateLimit > 0 {
		window := cfg.RateWindow
		if window <= 0 {
			window = time.Minute
		}
		limiter = NewRateLimiter(cfg.RateLimit, window)
	}

	version := ""
	if v, ok := catalog.Meta["version"].(string); ok {
		version = v
	}

	server := &Server{
		db:             db,
		engine:         engine,
		estimateCache:  estimateCache,
		cacheTTL:       ttl,
		catalogVersion: version,
		advisor:        agent,
		checkout:       checkoutClient,
		notifier:       NewEstimateNotifier(),
		allowedOrigins: cfg.AllowedOrigins,
		limiter:        limiter,
		requireSub:     cfg.RequireSubscription,
	}

	logrus.WithFields(logrus.Fields{
		"catalog_version": version,
		"score_bands":     len(catalog.ScoreBands),
		"lenders":         len(catalog.Lenders),
	}).Info("lender catalog loaded")

	return server, nil
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-User-Email"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	if s.limiter != nil {
		r.Use(RateLimitMiddleware(s.limiter))
	}

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.GET("/lenders", s.handleLenders)
		api.GET("/estimates", s.handleListEstimates)
		api.GET("/estimates/stream", s.handleEstimateStream)
		api.POST("/estimate", s.requireSubscriber(), s.handleEstimate)
		api.POST("/advisor", s.requireSubscriber(), s.handleAdvise)
		api.POST("/checkout", s.handleCheckout)
	}

	return r, nil
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.db.Close()
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// requireSubscriber gates estimator access on subscription status when
// configured. The profile store is an opaque collaborator; absent
// configuration the middleware is a no-op.
func (s *Server) requireSubscriber() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.requireSub {
			c.Next()
			return
		}
		email := c.GetHeader("X-User-Email")
		if email == "" {
			s.renderError(c, http.StatusUnauthorized, errors.New("subscriber email required"))
			c.Abort()
			return
		}
		profile, err := s.db.GetUserProfile(email)
		if err != nil {
			s.renderError(c, http.StatusInternalServerError, err)
			c.Abort()
			return
		}
		if profile == nil || !profile.Subscribed {
			s.renderError(c, http.StatusPaymentRequired, errors.New("active subscription required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
