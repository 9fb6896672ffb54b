package app

import (
	"context"
	"fmt"

	"github.com/vk/arcanebooks/internal/admin"
	"github.com/vk/arcanebooks/internal/ctxlog"
	"github.com/vk/arcanebooks/internal/effectfile"
	"github.com/vk/arcanebooks/internal/effects"
	"github.com/vk/arcanebooks/internal/replica"
)

// Serve runs the admin server and the replica link until ctx is cancelled.
// Every change to the registry is written back to the effects file.
func (a *App) Serve(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	stopSaving := a.effects.Subscribe(func(ev effects.Event) {
		if ev.Kind == effects.EventBacklogCleared {
			return
		}
		if err := effectfile.Save(ctx, a.effectsPath, a.effects); err != nil {
			logger.Error("Failed to save effects file.", "error", err)
		}
	})
	defer stopSaving()

	var srv *admin.Server
	if port := a.adminPort(); port > 0 {
		srv = admin.New(a.effects, a.definitions, a.runes, logger)
		srv.Start(port)
	} else {
		logger.Warn("Admin server not started: disabled")
	}

	if opts, ok := a.syncOptions(); ok {
		client, err := replica.Connect(ctx, a.effects, opts)
		if err != nil {
			if srv != nil {
				srv.Shutdown(context.WithoutCancel(ctx))
			}
			return fmt.Errorf("failed to start replica: %w", err)
		}
		defer client.Close()
		logger.Info("🔗 Replica connected.", "url", opts.URL)
	}

	logger.Info("🚀 Serving until interrupted.")
	<-ctx.Done()

	if srv != nil {
		if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error("Admin server shutdown failed", "error", err)
			return err
		}
	}
	logger.Info("🏁 Serving stopped.")
	return nil
}

func (a *App) adminPort() int {
	if a.config.AdminPort > 0 {
		return a.config.AdminPort
	}
	if a.model.Admin != nil {
		return a.model.Admin.Port
	}
	return 0
}

// syncOptions resolves the replica options. It reports false when no sync
// URL is configured.
func (a *App) syncOptions() (replica.Options, bool) {
	opts := replica.Options{URL: a.config.SyncURL}
	if s := a.model.Sync; s != nil {
		opts.URL = firstNonEmpty(opts.URL, s.URL)
		opts.Path = s.Path
		opts.Namespace = s.Namespace
	}
	return opts, opts.URL != ""
}
