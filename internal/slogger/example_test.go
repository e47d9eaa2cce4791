package slogger_test

import (
	"log/slog"

	"tractor.dev/tierfs/internal/slogger"
)

func ExampleNewWithOptions_excludeFreezePollRetry() {
	// This is what cmd/tierfs configures by default: the freeze registry's
	// WaitAny/WaitPrefix spin loops log a freeze_poll_retry attribute on
	// every retry, which would otherwise spam the log during contended
	// staging. Excluding the key drops only those records.
	logger := slogger.NewWithOptions(slogger.HandlerOptions{
		Level:   slog.LevelDebug,
		Exclude: []string{"freeze_poll_retry"},
	})

	// NOT logged: matches the excluded key.
	logger.Debug("retrying frozen path", "freeze_poll_retry", "/a/b.txt")

	// Logged: an unrelated worker event.
	logger.Info("committed to lower", "path", "/a/b.txt", "tier", "lower")
}

func ExampleNewWithOptions_includeLowerTier() {
	// Only surface activity against the lower tier, e.g. while debugging a
	// slow or unreliable lower backend.
	logger := slogger.NewWithOptions(slogger.HandlerOptions{
		Level:   slog.LevelDebug,
		Include: []string{"tier=lower"},
	})

	// Logged: tagged with tier=lower.
	logger.Debug("LUC promoted lower-only file", "path", "/x", "tier", "lower")

	// NOT logged: no tier=lower attribute.
	logger.Debug("committed to lower", "path", "/a/b.txt")
}

func ExampleUseWithOptions() {
	// Set the global logger the way cmd/tierfs/main.go does.
	slogger.UseWithOptions(slogger.HandlerOptions{
		Level:   slog.LevelDebug,
		Exclude: []string{"freeze_poll_retry"},
	})

	// Now the default slog logger uses the filtered handler.
	slog.Debug("retrying frozen path", "freeze_poll_retry", "/x")
	slog.Info("committed to lower", "path", "/x")
}
