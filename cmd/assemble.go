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
	"github.com/valpere/perebook/internal/pipeline"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Refine and render cached translations without re-translating",
	Long: `Picks up every structural state file in the cache folder and runs only
the refinement and assembly stages. Useful after hand-editing a cached
translation, or to regenerate final outputs with different fonts.`,
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

		states, err := listFiles(cfg.CacheDir, "*_structural.json")
		if err != nil {
			return err
		}
		if len(states) == 0 {
			fmt.Printf("No cached translations found in %s.\n", cfg.CacheDir)
			return nil
		}
		log.Info("assembling cached books", "books", len(states))

		pipeline.New(cfg, svc, nil, log).AssembleAll(ctx, states)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(assembleCmd)
}
