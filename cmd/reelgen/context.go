package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"reelgen/internal/config"
	"reelgen/internal/logging"
	"reelgen/internal/notifications"
	"reelgen/internal/workflow"
)

// stageFactory builds the pipeline handlers. Tests replace it to avoid
// reaching real providers.
type stageFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (workflow.StageSet, error)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	log        *slog.Logger
	logErr     error

	stages   stageFactory
	notifier func(*config.Config) notifications.Service
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		stages:     workflow.NewStageSet,
		notifier:   notifications.NewService,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) logger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		if c.log != nil {
			return
		}
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logErr = err
			return
		}
		c.log, c.logErr = logging.NewFromConfig(cfg)
	})
	return c.log, c.logErr
}

// withService opens the workflow service for the duration of fn.
func (c *commandContext) withService(cmd *cobra.Command, fn func(*workflow.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	stages, err := c.stages(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("build stages: %w", err)
	}
	svc, err := workflow.OpenWithStages(cfg, stages, logger)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
