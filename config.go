package exclusor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/viant/afs"
	"github.com/viant/exclusor/internal/logger"
	"github.com/viant/exclusor/model/cluster"
	"github.com/viant/exclusor/service/endpoint"
	fsqueue "github.com/viant/exclusor/service/messaging/fs"
	"github.com/viant/exclusor/service/meta"
	slacknotify "github.com/viant/exclusor/service/notify/slack"
	"github.com/viant/exclusor/service/processor"
	"github.com/viant/exclusor/service/replica"
	"github.com/viant/exclusor/service/scheduler"
	"github.com/viant/exclusor/service/validator"
	"github.com/viant/exclusor/tracing"
)

// Store drivers
const (
	DriverFS     = "fs"
	DriverMemory = "memory"
)

// Environment variables overriding the config document
const (
	EnvAddr          = "EXCLUSOR_ADDR"
	EnvBotToken      = "SLACK_BOT_TOKEN"
	EnvSigningSecret = "SLACK_SIGNING_SECRET"
	EnvChannelID     = "SLACK_CHANNEL_ID"
	EnvLogLevel      = "LOG_LEVEL"
	EnvAppEnv        = "APP_ENV"
	EnvAdminToken    = "EXCLUSOR_ADMIN_TOKEN"
)

// Config is a serialisable representation of the service configuration.
// LoadConfig decodes documents over DefaultConfig, so omitted sections keep
// their defaults.
type Config struct {
	Server    endpoint.Config    `json:"server" yaml:"server"`
	Slack     slacknotify.Config `json:"slack" yaml:"slack"`
	Store     StoreConfig        `json:"store" yaml:"store"`
	Replica   replica.Config     `json:"replica" yaml:"replica"`
	Validator validator.Config   `json:"validator" yaml:"validator"`
	Scheduler scheduler.Config   `json:"scheduler" yaml:"scheduler"`
	Processor processor.Config   `json:"processor" yaml:"processor"`
	Naming    cluster.Naming     `json:"naming" yaml:"naming"`
	Logging   logger.Config      `json:"logging" yaml:"logging"`
	Tracing   tracing.Config     `json:"tracing" yaml:"tracing"`
	// Events journals workflow events to events.url when set
	Events fsqueue.Config `json:"events" yaml:"events"`
}

// StoreConfig locates the exclusion list and the pending request document
type StoreConfig struct {
	// Driver is fs or memory; memory keeps pending requests in process only
	Driver       string `json:"driver,omitempty" yaml:"driver,omitempty"`
	ExclusionURL string `json:"exclusionURL,omitempty" yaml:"exclusionURL,omitempty"`
	PendingURL   string `json:"pendingURL,omitempty" yaml:"pendingURL,omitempty"`
}

// DefaultConfig returns a Config populated with package defaults
func DefaultConfig() *Config {
	return &Config{
		Server: endpoint.DefaultConfig(),
		Store: StoreConfig{
			Driver:       DriverFS,
			ExclusionURL: "exclude_clusters.txt",
			PendingURL:   "pending_requests.json",
		},
		Replica:   replica.Config{Kind: replica.KindNone, TimeoutMs: 30000},
		Validator: validator.DefaultConfig(),
		Scheduler: scheduler.DefaultConfig(),
		Processor: processor.DefaultConfig(),
		Naming:    cluster.DefaultNaming,
		Logging:   logger.Config{Env: "prod", Level: "info", ServiceName: "exclusor"},
		Events:    fsqueue.DefaultConfig(),
	}
}

// Validate returns aggregated error describing invalid settings or nil
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config was nil")
	}
	var errs []error
	if c.Slack.ChannelID == "" {
		errs = append(errs, errors.New("slack.channelId is required"))
	}
	if c.Slack.BotToken == "" && c.Slack.BotTokenURL == "" {
		errs = append(errs, errors.New("slack.botToken or slack.botTokenURL is required"))
	}
	switch c.Store.Driver {
	case DriverFS, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported store.driver: %q", c.Store.Driver))
	}
	if c.Store.ExclusionURL == "" {
		errs = append(errs, errors.New("store.exclusionURL is required"))
	}
	if c.Store.Driver == DriverFS && c.Store.PendingURL == "" {
		errs = append(errs, errors.New("store.pendingURL is required"))
	}
	switch c.Replica.Kind {
	case "", replica.KindNone:
	case replica.KindSCP, replica.KindAFS:
		if c.Replica.Target == "" {
			errs = append(errs, fmt.Errorf("replica.target is required for %s", c.Replica.Kind))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported replica.kind: %q", c.Replica.Kind))
	}
	if err := c.Naming.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("naming: %w", err))
	}
	if c.Processor.WorkerCount <= 0 {
		errs = append(errs, errors.New("processor.workers must be > 0"))
	}
	if !c.Scheduler.Disabled {
		if _, _, err := scheduler.ParseAt(c.Scheduler.At); err != nil {
			errs = append(errs, fmt.Errorf("scheduler.at: %w", err))
		}
	}
	if !c.Validator.Disabled && len(c.Validator.Regions) == 0 {
		errs = append(errs, errors.New("validator.regions is required"))
	}
	return errors.Join(errs...)
}

// LoadConfig builds the configuration: defaults, then the optional document at
// URL, then environment overrides. A .env file in the working directory is
// loaded first when present.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg := DefaultConfig()
	if URL != "" {
		metaService := meta.New(afs.New())
		if err := metaService.Load(ctx, URL, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", URL, err)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(name string, target *string) {
		if value, ok := lookup(name); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}
	set(EnvAddr, &c.Server.Addr)
	set(EnvBotToken, &c.Slack.BotToken)
	set(EnvSigningSecret, &c.Slack.SigningSecret)
	set(EnvChannelID, &c.Slack.ChannelID)
	set(EnvLogLevel, &c.Logging.Level)
	set(EnvAppEnv, &c.Logging.Env)
	set(EnvAdminToken, &c.Server.AdminToken)
}
