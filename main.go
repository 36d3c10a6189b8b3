package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"shaderedit/internal/assets"
	"shaderedit/internal/cli"
	"shaderedit/internal/config"
	"shaderedit/internal/ctxlog"
	"shaderedit/internal/gamemode"
	"shaderedit/internal/library"
	"shaderedit/internal/reload"
	"shaderedit/internal/render"
	"shaderedit/internal/shader"
	"shaderedit/internal/watcher"
)

const WindowTitle = "Shader Edit"

func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		slog.Error("Fatal error.", "err", err)
		os.Exit(1)
	}
}

func run(outW io.Writer, args []string) error {
	opts, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := newLogger(opts.LogLevel, opts.LogFormat, os.Stderr)
	slog.SetDefault(logger)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	// 1. Window Setup
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowTitle(WindowTitle)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	// 2. Initial State
	var initial gamemode.State = gamemode.NewMainMenu()
	if opts.ConfigPath != "" {
		edit, err := newShaderEdit(ctx, opts)
		if err != nil {
			return err
		}
		initial = edit
	}
	game := NewGame(initial)
	defer func() {
		if err := game.Close(); err != nil {
			logger.Warn("Failed to shut down cleanly.", "err", err)
		}
	}()

	// 3. Run Loop
	return ebiten.RunGame(game)
}

// newShaderEdit wires the live-reload pipeline. Any error is fatal.
func newShaderEdit(ctx context.Context, opts *cli.Options) (*gamemode.ShaderEdit, error) {
	logger := ctxlog.FromContext(ctx)

	root, err := assets.NewRoot(opts.AssetsDir)
	if err != nil {
		return nil, err
	}

	w, err := watcher.New(opts.Debounce, logger)
	if err != nil {
		return nil, err
	}

	registry := library.NewRegistry()
	controller, err := reload.New(ctx, reload.Options{
		ConfigPath: root.Resolve(opts.ConfigPath),
		Config:     config.NewLoader(root),
		Compiler:   shader.NewCompiler(registry),
		Library:    library.NewIndex(root, registry, logger),
		Watcher:    w,
	})
	if err != nil {
		_ = w.Close()
		return nil, err
	}

	return gamemode.NewShaderEdit(controller, render.NewDriver(logger), w), nil
}
