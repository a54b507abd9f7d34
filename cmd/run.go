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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valpere/perebook/internal/config"
	"github.com/valpere/perebook/internal/detector"
	"github.com/valpere/perebook/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Translate every PDF book in the input folder",
	Long: `Runs the full pipeline over each PDF in the input folder: structural
extraction with batch translation, gap patching, literary refinement, and
assembly into a fixed-layout PDF plus a reflowable EPUB.

Books whose final outputs already exist are skipped; books with intermediate
artifacts resume from the first missing stage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		log := newLogger()

		ctx, stop := signalContext()
		defer stop()

		svc, cleanup, err := buildTranslator(cfg, log)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := svc.IsAvailable(ctx); err != nil {
			return fmt.Errorf("generation service not reachable at %s: %w", cfg.OllamaURL, err)
		}

		books, err := listFiles(cfg.InputDir, "*.pdf")
		if err != nil {
			return err
		}
		if len(books) == 0 {
			fmt.Printf("No PDF books found in %s.\n", cfg.InputDir)
			return nil
		}
		log.Info("starting pipeline", "books", len(books), "model", cfg.Model,
			"source", cfg.SourceLang, "target", cfg.TargetLang)

		var det *detector.Detector
		if cfg.SourceLang == "auto" {
			det = detector.New()
		}

		pipeline.New(cfg, svc, det, log).ProcessAll(ctx, books)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
