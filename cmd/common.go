/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/valpere/perebook/internal/config"
	"github.com/valpere/perebook/internal/store"
	"github.com/valpere/perebook/internal/translator"
)

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// signalContext returns a context cancelled by SIGINT/SIGTERM so a stopped
// run leaves clean checkpoints behind.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// buildTranslator wires the generation service, with the optional SQLite
// translation memory behind it. The returned cleanup closes the memory.
func buildTranslator(cfg config.Config, log *slog.Logger) (*translator.Service, func(), error) {
	var mem translator.Memory
	cleanup := func() {}

	if cfg.MemoryDB != "" {
		db, err := store.New(cfg.MemoryDB)
		if err != nil {
			return nil, nil, err
		}
		mem = db
		cleanup = func() { db.Close() }
	}

	svc := translator.New(translator.Config{
		BaseURL:          cfg.OllamaURL,
		Model:            cfg.Model,
		SourceLang:       cfg.SourceLang,
		TargetLang:       cfg.TargetLang,
		TranslateTimeout: cfg.TranslateTimeout,
		RefineTimeout:    cfg.RefineTimeout,
		TranslateCtx:     cfg.TranslateCtx,
		RefineCtx:        cfg.RefineCtx,
		MaxAttempts:      cfg.MaxAttempts,
	}, log, mem)
	return svc, cleanup, nil
}

// listFiles globs pattern inside dir and returns the matches sorted.
func listFiles(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
