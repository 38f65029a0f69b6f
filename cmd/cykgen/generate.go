package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cykgen/internal/config"
	"cykgen/internal/cyk"
	"cykgen/internal/emit"
	"cykgen/internal/grammar"
)

var (
	grammarPath string
	outPath     string
	tileSize    int
	checkpoint  bool
	outside     bool
	noCYK       bool
	watch       bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the traversal function for a grammar descriptor",
	Long: `Generate reads a grammar descriptor (.hcl), synthesizes the traversal
function and writes it as C with OpenMP annotations to the output path
(stdout by default). With --watch it keeps running and regenerates
whenever the descriptor changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		opts := optionsFrom(cmd, cfg)
		out := cfg.Output.Path
		if cmd.Flags().Changed("out") {
			out = outPath
		}

		if err := runGenerate(grammarPath, out, opts); err != nil {
			if !watch {
				return err
			}
			// In watch mode a broken descriptor is a fact of life;
			// report it and wait for the next save.
			logger.Error("generation failed", zap.Error(err))
		}
		if !watch {
			return nil
		}
		return watchLoop(grammarPath, out, opts)
	},
}

func init() {
	generateCmd.Flags().StringVarP(&grammarPath, "grammar", "g", "", "grammar descriptor file (required)")
	generateCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")
	generateCmd.Flags().IntVar(&tileSize, "tile-size", cyk.DefaultTileSize, "tile edge length for the parallel schedule")
	generateCmd.Flags().BoolVar(&checkpoint, "checkpoint", false, "thread checkpoint/restart state through the traversal")
	generateCmd.Flags().BoolVar(&outside, "outside", false, "generate the dual (outside) traversal")
	generateCmd.Flags().BoolVar(&noCYK, "no-dp", false, "emit an empty traversal function (grammar requests no DP evaluation)")
	generateCmd.Flags().BoolVarP(&watch, "watch", "w", false, "regenerate whenever the descriptor changes")
	_ = generateCmd.MarkFlagRequired("grammar")
}

// optionsFrom merges config-file defaults with explicitly set flags.
func optionsFrom(cmd *cobra.Command, cfg *config.Config) cyk.Options {
	opts := cyk.Options{
		Enabled:    !noCYK,
		Outside:    cfg.Generator.Outside,
		Checkpoint: cfg.Generator.Checkpoint,
		TileSize:   cfg.Generator.TileSize,
	}
	if cmd.Flags().Changed("outside") {
		opts.Outside = outside
	}
	if cmd.Flags().Changed("checkpoint") {
		opts.Checkpoint = checkpoint
	}
	if cmd.Flags().Changed("tile-size") {
		opts.TileSize = tileSize
	}
	return opts
}

func runGenerate(grammarPath, out string, opts cyk.Options) error {
	g, err := grammar.LoadFile(grammarPath)
	if err != nil {
		return err
	}
	logger.Debug("descriptor loaded",
		zap.String("grammar", g.Name),
		zap.Int("tracks", g.TrackCount()),
		zap.Int("nonterminals", len(g.NTs)))

	fn, err := cyk.Generate(g, opts, logger)
	if err != nil {
		return err
	}
	code := emit.Render(fn)

	if out == "" {
		fmt.Print(code)
		return nil
	}
	if err := os.WriteFile(out, []byte(code), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	logger.Info("traversal written", zap.String("path", out), zap.String("grammar", g.Name))
	return nil
}

// watchLoop regenerates on every write to the descriptor. Editors replace
// files on save, so the watch is on the directory and filtered by name.
func watchLoop(grammarPath, out string, opts cyk.Options) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(grammarPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	logger.Info("watching descriptor", zap.String("path", grammarPath))

	want := filepath.Clean(grammarPath)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != want {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("descriptor changed", zap.String("op", ev.Op.String()))
			if err := runGenerate(grammarPath, out, opts); err != nil {
				logger.Error("generation failed", zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}
