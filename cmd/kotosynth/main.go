package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/anthropics/kotosynth/pkg/audiodriver"
	"github.com/anthropics/kotosynth/pkg/fsadapter"
	"github.com/anthropics/kotosynth/pkg/mtime"
	"github.com/anthropics/kotosynth/pkg/namespace"
	"github.com/anthropics/kotosynth/pkg/patch"
	"github.com/anthropics/kotosynth/pkg/sexpr"
	"github.com/anthropics/kotosynth/pkg/statustui"
	"github.com/anthropics/kotosynth/pkg/ugen"
)

func main() {
	patchPath := flag.String("patch", "", "path to a patch file to load at startup (required)")
	mountPath := flag.String("mount", "", "directory to mount the patch's namespace at (required)")
	sampleRate := flag.Uint("rate", 44100, "audio sample rate in Hz")
	bpm := flag.Float64("bpm", 120, "initial tempo in beats per minute")
	logLevel := flag.String("log-level", "info", "zerolog level (debug, info, warn, error)")
	status := flag.Bool("status", false, "also show a live status dashboard (logging to stderr continues)")
	flag.Parse()

	if *patchPath == "" || *mountPath == "" {
		fmt.Fprintln(os.Stderr, "usage: kotosynth -patch <file> -mount <dir> [-rate 44100] [-bpm 120] [-status]")
		os.Exit(2)
	}

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level: %v\n", err)
		os.Exit(2)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	if err := run(*patchPath, *mountPath, uint(*sampleRate), *bpm, *status, log); err != nil {
		log.Fatal().Err(err).Msg("kotosynth")
	}
}

func run(patchPath, mountPath string, sampleRate uint, bpm float64, showStatus bool, log zerolog.Logger) error {
	src, err := os.ReadFile(patchPath)
	if err != nil {
		return fmt.Errorf("reading patch: %w", err)
	}

	exprs, err := sexpr.Read(string(src))
	if err != nil {
		return fmt.Errorf("parsing patch: %w", err)
	}

	clock := mtime.NewTime(sampleRate, bpm)
	env := patch.NewEnv(clock)
	val, err := patch.EvalAll(exprs, env)
	if err != nil {
		return fmt.Errorf("evaluating patch: %w", err)
	}
	if val.Kind != patch.VUnit {
		return fmt.Errorf("patch root must evaluate to a unit, got %v", val.Kind)
	}
	root := val.Unit

	graph := ugen.NewGraph(root)
	tree := namespace.Build(root)
	syncer := &namespace.Syncer{Tree: tree, Graph: graph, Clock: &clock, Log: log}
	fs := fsadapter.New(tree, syncer, log)

	if err := os.MkdirAll(mountPath, 0o755); err != nil {
		return fmt.Errorf("creating mount point: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("mount", mountPath).Msg("mounting patch namespace")
		return fsadapter.Mount(mountPath, fs)
	})

	g.Go(func() error {
		driver, err := audiodriver.NewDriver(graph, &clock, log)
		if err != nil {
			return fmt.Errorf("opening audio device: %w", err)
		}
		<-gctx.Done()
		return driver.Close()
	})

	if showStatus {
		g.Go(func() error {
			p := tea.NewProgram(statustui.New(graph, &clock, tree, mountPath))
			go func() {
				<-gctx.Done()
				p.Quit()
			}()
			_, err := p.Run()
			return err
		})
	}

	return g.Wait()
}
