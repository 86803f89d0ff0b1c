package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	calendarApp "github.com/felixgeelhaar/taskpulse/internal/calendar/application"
	"github.com/felixgeelhaar/taskpulse/internal/calendar/infrastructure/caldav"
	googleCalendar "github.com/felixgeelhaar/taskpulse/internal/calendar/infrastructure/google"
	"github.com/felixgeelhaar/taskpulse/internal/matcher"
	"github.com/felixgeelhaar/taskpulse/internal/notification"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/briefing"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/commands"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/queries"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/services"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/history"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
	reconcileCache "github.com/felixgeelhaar/taskpulse/internal/reconcile/infrastructure/cache"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/infrastructure/todoist"
	sharedApplication "github.com/felixgeelhaar/taskpulse/internal/shared/application"
	sharedCache "github.com/felixgeelhaar/taskpulse/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/taskpulse/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/taskpulse/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskpulse/internal/timetracking"
	"github.com/felixgeelhaar/taskpulse/internal/timetracking/toggl"
	"github.com/felixgeelhaar/taskpulse/pkg/config"
	"github.com/felixgeelhaar/taskpulse/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// CacheNamespace prefixes every Redis key written by taskpulse.
const CacheNamespace = "taskpulse"

// ErrUnknownMatcher is returned for an unsupported MATCHER value.
var ErrUnknownMatcher = errors.New("unknown matcher")

// Container holds all application dependencies.
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *observability.InMemoryMetrics
	Health   *observability.HealthRegistry
	Location *time.Location
	Rules    task.Rules

	// Task backend
	TodoistClient *todoist.Client
	TaskRepo      task.Repository
	UnitOfWork    sharedApplication.UnitOfWork
	ActivityLog   task.ActivityLog
	Karma         task.KarmaSource
	Directory     task.Directory
	Matcher       task.Matcher

	// Infrastructure
	RedisClient    *redis.Client
	Cache          sharedCache.Store
	DBConn         database.Connection
	HistoryRepo    history.Repository
	EventPublisher eventbus.Publisher
	DomainEvents   sharedApplication.EventPublisher
	Notifier       notification.Notifier
	Calendar       calendarApp.Publisher
	TimeTracker    *toggl.Client

	// Services
	Aggregator       *services.Aggregator
	Resolver         *services.Resolver
	CompletionEngine *services.CompletionEngine
	DeferralEngine   *services.DeferralEngine
	ScoringEngine    *services.ScoringEngine

	// Command handlers
	ReconcileTimeEntryHandler *commands.ReconcileTimeEntryHandler
	SweepOverdueHandler       *commands.SweepOverdueHandler

	// Query handlers
	ListOpenTasksHandler  *queries.ListOpenTasksHandler
	ListLabeledHandler    *queries.ListLabeledHandler
	ComputeScoreHandler   *queries.ComputeScoreHandler
	ActivityCountsHandler *queries.ActivityCountsHandler
	ScoreHistoryHandler   *queries.ScoreHistoryHandler
	KarmaTrendHandler     *queries.KarmaTrendHandler

	// Briefings
	Briefing *briefing.Service

	pluginMatcher *matcher.Matcher
}

// NewContainer creates and wires all dependencies. Optional infrastructure
// (Redis, RabbitMQ, the history database) degrades to local fallbacks in
// development and fails the startup otherwise.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Metrics:  observability.NewInMemoryMetrics(),
		Health:   observability.NewHealthRegistry(),
		Location: cfg.Location(),
		Rules:    RulesFromConfig(cfg),
	}

	// Task backend
	c.TodoistClient = todoist.NewClient(todoist.Config{
		Token:           cfg.TodoistToken,
		RESTURL:         cfg.TodoistRESTURL,
		SyncURL:         cfg.TodoistSyncURL,
		Timeout:         cfg.TodoistTimeout,
		BreakerFailures: uint32(max(cfg.BreakerFailures, 0)),
		BreakerCooldown: cfg.BreakerCooldown,
	}, logger, c.Metrics)
	c.TaskRepo = todoist.NewRepository(c.TodoistClient, c.Location)
	c.UnitOfWork = todoist.NewUnitOfWork(c.TodoistClient)
	c.ActivityLog = todoist.NewActivityLog(c.TodoistClient, 0)
	c.Karma = todoist.NewKarma(c.TodoistClient)
	c.Directory = todoist.NewDirectory(c.TodoistClient)
	c.Health.Register("todoist", observability.PingChecker("todoist", true, c.TodoistClient.Ping))

	// Connect to Redis (optional)
	if err := c.initCache(ctx); err != nil {
		c.Close()
		return nil, err
	}

	// History store (optional)
	if err := c.initHistory(ctx); err != nil {
		c.Close()
		return nil, err
	}

	// Event publisher
	if err := c.initEventPublisher(); err != nil {
		c.Close()
		return nil, err
	}

	// Matcher
	m, err := c.newMatcher()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Matcher = m

	c.Notifier = newNotifier(cfg, logger)

	cal, err := newCalendar(ctx, cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Calendar = cal

	if cfg.TogglToken != "" {
		c.TimeTracker = toggl.NewClient(cfg.TogglURL, cfg.TogglToken, logger)
	}

	c.wireHandlers()

	logger.Info("container ready",
		"history", c.DBConn != nil,
		"redis", c.RedisClient != nil,
		"matcher", cfg.Matcher,
		"notifier", c.Notifier.Name(),
		"calendar", cfg.CalendarProvider,
	)
	return c, nil
}

// RulesFromConfig builds the content rules from configuration.
func RulesFromConfig(cfg *config.Config) task.Rules {
	rules := task.NewRules(task.DurationPolicy{
		EveryDay:     cfg.EveryDayDuration,
		EveryWeekday: cfg.EveryWeekdayDuration,
		SomeWeekday:  cfg.SomeWeekdayDuration,
	})
	if cfg.DurationUnit != "" {
		rules.Annotation = task.NewAnnotation(cfg.DurationUnit)
	}
	if cfg.RecurringMarker != "" {
		rules.Markers.Recurring = cfg.RecurringMarker
	}
	if cfg.DailyMarker != "" {
		rules.Markers.Daily = cfg.DailyMarker
	}
	if cfg.WeekdayMarker != "" {
		rules.Markers.Weekday = cfg.WeekdayMarker
	}
	return rules
}

func (c *Container) wireHandlers() {
	now := time.Now

	c.Aggregator = services.NewAggregator(c.TaskRepo)
	c.Resolver = services.NewResolver(c.Aggregator, c.Matcher, c.Rules)
	c.CompletionEngine = services.NewCompletionEngine(c.TaskRepo, c.UnitOfWork, c.Rules)
	c.DeferralEngine = services.NewDeferralEngine(c.Aggregator, c.TaskRepo, c.UnitOfWork, c.Rules, c.Location, now)
	c.ScoringEngine = services.NewScoringEngine(c.Aggregator, c.ActivityLog, c.Karma, c.Location, now)

	c.ReconcileTimeEntryHandler = commands.NewReconcileTimeEntryHandler(
		c.Resolver, c.CompletionEngine, c.DomainEvents, c.HistoryRepo, c.Metrics, c.Logger,
	)
	c.SweepOverdueHandler = commands.NewSweepOverdueHandler(
		c.DeferralEngine, c.Notifier, c.DomainEvents, c.HistoryRepo, c.Metrics, c.Logger,
	)

	c.ListOpenTasksHandler = queries.NewListOpenTasksHandler(c.Aggregator, c.Directory, c.Rules, c.Location)
	c.ListLabeledHandler = queries.NewListLabeledHandler(c.Aggregator, c.Directory)
	c.ComputeScoreHandler = queries.NewComputeScoreHandler(c.ScoringEngine)
	c.ActivityCountsHandler = queries.NewActivityCountsHandler(c.ScoringEngine)
	c.ScoreHistoryHandler = queries.NewScoreHistoryHandler(c.HistoryRepo)
	c.KarmaTrendHandler = queries.NewKarmaTrendHandler(c.ScoringEngine)

	c.Briefing = briefing.NewService(briefing.Dependencies{
		Sets:     c.Aggregator,
		Activity: c.ScoringEngine,
		Karma:    c.Karma,
		Names:    c.Directory,
		Calendar: c.Calendar,
		Notifier: c.Notifier,
		History:  c.HistoryRepo,
		Rules:    c.Rules,
		Location: c.Location,
		Now:      now,
		Logger:   c.Logger,
	})
}

func (c *Container) initCache(ctx context.Context) error {
	cfg := c.Config
	if cfg.RedisURL == "" {
		c.Cache = sharedCache.NewMemoryStore()
		return nil
	}

	client, err := sharedCache.NewRedisClient(cfg.RedisURL)
	if err != nil {
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, using in-memory cache", "error", err)
		c.Cache = sharedCache.NewMemoryStore()
		return nil
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, using in-memory cache", "error", err)
		c.Cache = sharedCache.NewMemoryStore()
		return nil
	}

	store := sharedCache.NewRedisStore(client, CacheNamespace)
	c.RedisClient = client
	c.Cache = store
	c.Directory = reconcileCache.NewDirectory(c.Directory, store, cfg.NameCacheTTL, c.Logger)
	c.Health.Register("redis", observability.PingChecker("redis", false, store.Ping))
	c.Logger.Info("connected to Redis")
	return nil
}

func (c *Container) initHistory(ctx context.Context) error {
	conn, repo, err := OpenHistory(ctx, c.Config, c.Logger)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return err
		}
		c.Logger.Warn("history store not available, history is disabled", "error", err)
	}
	c.DBConn = conn
	c.HistoryRepo = repo
	if conn != nil {
		c.Health.Register("database", observability.PingChecker("database", false, conn.Ping))
	}
	return nil
}

func (c *Container) initEventPublisher() error {
	cfg := c.Config
	if cfg.RabbitMQURL == "" {
		c.EventPublisher = eventbus.NewInProcessEventBus(c.Logger)
		c.DomainEvents = eventbus.NewDomainEventPublisher(c.EventPublisher)
		return nil
	}

	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, c.Logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
		c.EventPublisher = eventbus.NewNoopPublisher(c.Logger)
	} else {
		c.EventPublisher = publisher
		c.Health.Register("rabbitmq", observability.PingChecker("rabbitmq", false, publisher.Check))
	}
	c.DomainEvents = eventbus.NewDomainEventPublisher(c.EventPublisher)
	return nil
}

func (c *Container) newMatcher() (task.Matcher, error) {
	switch c.Config.Matcher {
	case "", "substring":
		return task.SubstringMatcher{}, nil
	case "token":
		return task.TokenMatcher{FoldCase: true}, nil
	case "plugin":
		m, err := matcher.Load(c.Config.MatcherPluginPath, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load matcher plugin: %w", err)
		}
		c.pluginMatcher = m
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMatcher, c.Config.Matcher)
	}
}

func newNotifier(cfg *config.Config, logger *slog.Logger) notification.Notifier {
	var sinks []notification.Notifier
	if cfg.SlackBotToken != "" {
		sinks = append(sinks, notification.NewSlackBotNotifier(cfg.SlackAPIURL, cfg.SlackBotToken, cfg.SlackChannel))
	}
	if cfg.SlackWebhookURL != "" {
		sinks = append(sinks, notification.NewSlackWebhookNotifier(cfg.SlackWebhookURL))
	}
	switch len(sinks) {
	case 0:
		return notification.NewLogNotifier(logger)
	case 1:
		return sinks[0]
	default:
		return notification.NewMultiNotifier(logger, sinks...)
	}
}

func newCalendar(ctx context.Context, cfg *config.Config, logger *slog.Logger) (calendarApp.Publisher, error) {
	switch cfg.CalendarProvider {
	case "":
		return calendarApp.NopPublisher{}, nil
	case "caldav":
		return caldav.NewPublisher(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword, logger).
			WithCalendarPath(cfg.CalDAVCalendar), nil
	case "google":
		p, err := googleCalendar.NewPublisher(ctx, googleCalendar.Credentials{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RefreshToken: cfg.GoogleRefreshToken,
		}, cfg.GoogleCalendarID, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Google calendar publisher: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown calendar provider %q", cfg.CalendarProvider)
	}
}

// EntryStoppedConsumer builds the worker's time-entry consumer. Duplicate
// deliveries are filtered through the container's cache.
func (c *Container) EntryStoppedConsumer() *timetracking.EntryStoppedConsumer {
	var source timetracking.EntrySource
	if c.TimeTracker != nil {
		source = c.TimeTracker
	}
	return timetracking.NewEntryStoppedConsumer(c.ReconcileTimeEntryHandler, source, c.Cache, c.Metrics, c.Logger)
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.pluginMatcher != nil {
		c.pluginMatcher.Close()
		c.Logger.Info("matcher plugin stopped")
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBConn.Driver())
		}
	}
}
