// Package httpapi is the JSON-over-HTTP boundary: a gin router, request
// handlers, the error envelope and cross-cutting middleware.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/questline/internal/logging"
	"github.com/dmitrijs2005/questline/internal/server/auth"
	"github.com/dmitrijs2005/questline/internal/server/leaderboard"
	"github.com/dmitrijs2005/questline/internal/server/models"
	"github.com/dmitrijs2005/questline/internal/server/services"
	"github.com/gin-gonic/gin"
)

const slowRequestThreshold = 500 * time.Millisecond

type UserAPI interface {
	Signup(ctx context.Context, email, password string) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Me(ctx context.Context, userID int64) (*models.User, error)
}

type QuestAPI interface {
	Complete(ctx context.Context, userID int64, in services.CompleteInput) (*services.CompleteResult, error)
	Recommend(ctx context.Context, userID int64, authenticated bool, category string, k int) ([]models.Quest, error)
	RecordOutcome(ctx context.Context, userID, questID int64, outcome string) error
	Completions(ctx context.Context, userID int64, limit int) ([]models.QuestCompletion, error)
}

type AchievementAPI interface {
	Earned(ctx context.Context, userID int64) ([]services.EarnedAchievement, error)
	All(ctx context.Context, userID int64) ([]services.AchievementStatus, error)
}

type LeaderboardAPI interface {
	Global(ctx context.Context, metric leaderboard.Metric) ([]leaderboard.Entry, error)
	Friends(ctx context.Context, userID int64, metric leaderboard.Metric) ([]leaderboard.Entry, error)
	Rank(ctx context.Context, userID int64, metric leaderboard.Metric) (leaderboard.Standing, error)
}

type MomentAPI interface {
	Create(ctx context.Context, userID int64, text string) (*models.Moment, error)
	List(ctx context.Context, userID int64, limit int) ([]models.Moment, error)
}

type SettingsAPI interface {
	Get(ctx context.Context, userID int64) (*models.UserSettings, error)
	Update(ctx context.Context, userID int64, p services.SettingsPatch) (*models.UserSettings, error)
}

type EventAPI interface {
	Ingest(ctx context.Context, userID *int64, batch []services.EventInput) (int, error)
	Today(ctx context.Context, userID int64) (*services.TodayStats, error)
	Summary(ctx context.Context, userID int64, rangeDays int) (*services.SummaryStats, error)
}

// CookieSettings describe the session cookie written on signup and login.
type CookieSettings struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

type RouterConfig struct {
	Gate         *auth.Gate
	Users        UserAPI
	Quests       QuestAPI
	Achievements AchievementAPI
	Leaderboard  LeaderboardAPI
	Events       EventAPI
	Moments      MomentAPI
	Settings     SettingsAPI

	Logger  logging.Logger
	Metrics HTTPMetrics
	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler
	// Ping backs GET /health when set.
	Ping func(ctx context.Context) error

	Cookie         CookieSettings
	AllowedOrigins []string
	AuthLimiter    *RateLimiter
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is
	// honoured. Empty means the client IP is always the peer address.
	TrustedProxies []string
}

type handlers struct {
	cfg    RouterConfig
	logger logging.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop{}
	}
	h := &handlers{cfg: cfg, logger: logger}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Error(context.Background(), "invalid trusted proxies, ignoring forwarded headers", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(logger, slowRequestThreshold))
	r.Use(Metrics(cfg.Metrics))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(CORS(cfg.AllowedOrigins))
	}
	r.Use(cfg.Gate.Middleware())

	r.GET("/health", h.health)
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	r.POST("/auth/logout", h.logout)
	credentials := r.Group("/auth")
	if cfg.AuthLimiter != nil {
		credentials.Use(cfg.AuthLimiter.Middleware())
	}
	credentials.POST("/signup", h.signup)
	credentials.POST("/login", h.login)

	r.GET("/me", h.me)
	r.GET("/me/quests/completions", h.completions)
	r.GET("/me/moments", h.listMoments)
	r.POST("/me/moments", h.createMoment)
	r.GET("/me/settings", h.getSettings)
	r.PUT("/me/settings", h.updateSettings)

	quests := r.Group("/quests")
	quests.POST("/complete", h.completeQuest)
	quests.GET("/recommendations", h.recommendations)
	quests.POST("/outcomes", h.recordOutcome)

	r.GET("/achievements", h.allAchievements)
	r.GET("/achievements/me", h.myAchievements)

	board := r.Group("/leaderboard")
	board.GET("/global", h.globalLeaderboard)
	board.GET("/friends", h.friendsLeaderboard)
	board.GET("/rank", h.rank)

	r.POST("/events", h.ingestEvents)

	stats := r.Group("/stats")
	stats.GET("/today", h.statsToday)
	stats.GET("/summary", h.statsSummary)

	return r
}

// identity returns the caller's identity or writes 401.
func identity(c *gin.Context) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		respondUnauthorized(c)
	}
	return id, ok
}

func (h *handlers) health(c *gin.Context) {
	if h.cfg.Ping != nil {
		if err := h.cfg.Ping(c.Request.Context()); err != nil {
			h.logger.Error(c.Request.Context(), "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	RespondOK(c, gin.H{"status": "ok"})
}
