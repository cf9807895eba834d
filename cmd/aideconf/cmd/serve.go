package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/aideconf/internal/api"
	"github.com/hugo-lorenzo-mato/aideconf/internal/config"
	"github.com/hugo-lorenzo-mato/aideconf/internal/logging"
	"github.com/hugo-lorenzo-mato/aideconf/internal/probe"
	"github.com/hugo-lorenzo-mato/aideconf/internal/schema"
	"github.com/hugo-lorenzo-mato/aideconf/internal/service"
	"github.com/hugo-lorenzo-mato/aideconf/internal/store"
	"github.com/hugo-lorenzo-mato/aideconf/internal/validate"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the configuration API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.host/server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	st, err := store.New(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	registry := schema.Builtin()
	validator := validate.New(registry, probe.Filesystem{},
		validate.WithTimeout(cfg.Validation.Timeout),
		validate.WithLogger(log.Logger),
	)

	prov := probe.NewProviderProbe()
	vctx := validate.Context{
		CheckFileExistence:      cfg.Validation.CheckFiles,
		CheckAPIKeys:            cfg.Validation.CheckAPIKeys,
		CheckModelCompatibility: cfg.Validation.CheckModels,
	}
	if cfg.Validation.CheckModels {
		vctx.AvailableModels = fetchAvailableModels(prov, cfg.Validation, log)
	}

	configOpts := []service.ConfigOption{
		service.WithCacheTTL(cfg.Current.CacheTTL),
		service.WithValidationContext(vctx),
	}
	if cfg.Current.Watch {
		configOpts = append(configOpts, service.WithWatcher())
	}
	configSvc, err := service.NewConfigService(cfg.Current.Path, registry, validator, st, log, configOpts...)
	if err != nil {
		return err
	}
	defer func() { _ = configSvc.Close() }()

	profileSvc := service.NewProfileService(st, configSvc, registry, log)
	templateSvc := service.NewTemplateService(st, configSvc, log)

	server := api.NewServer(configSvc, profileSvc, templateSvc, st, registry,
		api.WithLogger(log),
		api.WithCORSOrigins(cfg.Server.CORSOrigins),
		api.WithRequestTimeout(cfg.Server.RequestTimeout),
		api.WithProviderProbe(prov),
	)

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go cleanupHistory(ctx, st, cfg.History, log)

	return server.ListenAndServe(ctx, addr, cfg.Server.ShutdownTimeout)
}

// fetchAvailableModels asks each provider with a configured key which
// models the key can reach, so model compatibility checks validate
// against live data. Failures degrade to a warning per provider.
func fetchAvailableModels(prov *probe.ProviderProbe, cfg config.ValidationConfig, log *logging.Logger) []string {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	keys := []struct {
		provider probe.Provider
		key      string
	}{
		{probe.ProviderOpenAI, cfg.OpenAIKey},
		{probe.ProviderAnthropic, cfg.AnthropicKey},
		{probe.ProviderOpenRouter, cfg.OpenRouterKey},
	}

	var models []string
	for _, k := range keys {
		if k.key == "" {
			continue
		}
		names, err := prov.AvailableModels(ctx, k.provider, k.key)
		if err != nil {
			log.Warn("fetching available models failed", "provider", string(k.provider), "error", err)
			continue
		}
		models = append(models, names...)
	}
	return models
}

// cleanupHistory prunes expired change-history entries once at startup
// and then daily until the server shuts down.
func cleanupHistory(ctx context.Context, st *store.Store, cfg config.HistoryConfig, log *logging.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		deleted, err := st.CleanupHistory(ctx, cfg.Retention, cfg.MaxPerProfile)
		if err != nil {
			log.Warn("history cleanup failed", "error", err)
		} else if deleted > 0 {
			log.Info("pruned change history", "deleted", deleted)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
