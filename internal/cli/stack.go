package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	pos "github.com/jas0n325/captone-ui-sub006"
	"github.com/jas0n325/captone-ui-sub006/internal/config"
	"github.com/jas0n325/captone-ui-sub006/pkg/adapters/classifier"
	"github.com/jas0n325/captone-ui-sub006/pkg/adapters/file"
	httpAdapter "github.com/jas0n325/captone-ui-sub006/pkg/adapters/http"
	"github.com/jas0n325/captone-ui-sub006/pkg/adapters/memory"
	redisAdapter "github.com/jas0n325/captone-ui-sub006/pkg/adapters/redis"
	"github.com/jas0n325/captone-ui-sub006/pkg/adapters/sqlite"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/observability"
	"github.com/jas0n325/captone-ui-sub006/pkg/ports"
	"github.com/jas0n325/captone-ui-sub006/pkg/settings"
)

// Stack is a fully wired terminal: the engine plus the collaborators the CLI
// commands expose.
type Stack struct {
	Config   config.Config
	Logger   *slog.Logger
	Engine   *pos.Engine
	Domain   ports.DomainEngine
	Settings *settings.Manager
	Devices  *memory.Devices
	Metrics  *observability.Metrics
	Streams  *httpAdapter.StreamManager

	closers []io.Closer
}

// BuildStack wires the engine from cfg. extra options are applied after the
// defaults, e.g. to attach debug hooks.
func BuildStack(cfg config.Config, logger *slog.Logger, extra ...pos.Option) (*Stack, error) {
	s := &Stack{
		Config:  cfg,
		Logger:  logger,
		Devices: memory.NewDevices(0),
		Metrics: observability.New(),
		Streams: httpAdapter.NewStreamManager(logger),
	}

	store, err := s.settingsStore()
	if err != nil {
		return nil, err
	}
	s.Settings = settings.NewManager(store, s.settingsOptions(store)...)

	cls, err := s.classifier()
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Domain, err = s.domainEngine()
	if err != nil {
		s.Close()
		return nil, err
	}

	opts := []pos.Option{
		pos.WithConfig(cfg),
		pos.WithLogger(logger),
		pos.WithClassifier(cls),
		pos.WithSettings(s.Settings),
		pos.WithScanner(s.Devices),
		pos.WithNotifier(s.Devices),
		pos.WithNavigator(s.Devices),
		pos.WithReceipt(s.Devices),
		pos.WithLocalActionHandler(s.Devices),
		pos.WithLifecycleHooks(s.Metrics.Hooks()),
		pos.WithLifecycleHooks(s.Streams.Hooks()),
	}
	s.Engine, err = pos.New(s.Domain, append(opts, extra...)...)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return s, nil
}

func (s *Stack) settingsStore() (ports.SettingsStore, error) {
	cfg := s.Config
	switch cfg.Settings.Backend {
	case config.BackendFile:
		return file.New(cfg.Settings.Path), nil
	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.Settings.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite settings: %w", err)
		}
		s.closers = append(s.closers, store)
		return store, nil
	case config.BackendRedis:
		store, err := redisAdapter.New(cfg.Redis.URL, redisAdapter.WithPrefix(cfg.Redis.Prefix))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.closers = append(s.closers, store)
		return store, nil
	}
	return memory.NewStore(), nil
}

func (s *Stack) settingsOptions(store ports.SettingsStore) []settings.Option {
	opts := []settings.Option{
		settings.WithLogger(s.Logger),
		settings.WithMonotonic(s.Config.Settings.Monotonic),
	}
	// Terminals sharing one redis serialize propagation across processes.
	if rs, ok := store.(*redisAdapter.Store); ok {
		opts = append(opts, settings.WithLocker(redisAdapter.NewLocker(rs.Client(), rs.Prefix())))
	}
	return opts
}

func (s *Stack) classifier() (*classifier.Classifier, error) {
	rules := classifier.DefaultRules()
	if path := s.Config.Classifier.Rules; path != "" {
		var err error
		rules, err = classifier.LoadRules(path)
		if err != nil {
			return nil, err
		}
	}
	return classifier.New(rules, classifier.WithLogger(s.Logger))
}

func (s *Stack) domainEngine() (ports.DomainEngine, error) {
	cfg := s.Config.Domain
	if cfg.URL != "" {
		return httpAdapter.NewClient(cfg.URL,
			httpAdapter.WithTimeout(cfg.Timeout),
			httpAdapter.WithClientLogger(s.Logger),
		), nil
	}

	script := memory.DefaultScript()
	if cfg.Script != "" {
		var err error
		script, err = memory.LoadScript(cfg.Script)
		if err != nil {
			return nil, err
		}
	}
	return memory.NewDomainEngine(script), nil
}

// Start establishes the first logical state. The error is returned for reporting;
// the engine is already in FatalError when it is non-nil.
func (s *Stack) Start(ctx context.Context) error {
	if err := s.Engine.Start(ctx); err != nil {
		s.Logger.Error("failed to establish the logical state", "err", err, "start_event", s.Config.Domain.StartEvent)
		return fmt.Errorf("start: %w", err)
	}
	return nil
}

// Close releases the settings backend.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	s.closers = nil
	return errors.Join(errs...)
}

// DebugOptions attaches the debug hooks when enabled.
func DebugOptions(logger *slog.Logger, enabled bool) []pos.Option {
	if !enabled {
		return nil
	}
	return []pos.Option{pos.WithLifecycleHooks(debugHooks(logger))}
}

// debugHooks logs every lifecycle event at debug level.
func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSubmit: func(ctx context.Context, e *domain.SubmissionEvent) {
			logger.Debug("submit", "event_type", e.EventType, "correlation_id", e.CorrelationID)
		},
		OnReject: func(ctx context.Context, e *domain.RejectEvent) {
			logger.Debug("reject", "context", e.Context, "tag", e.Tag, "reason", e.Reason)
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.Debug("transition", "from_mode", e.From.Mode, "to_mode", e.To.Mode, "to_state", e.To.LogicalState)
		},
	}
}
