package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/isharavaani/internal/app"
	"github.com/ayusman/isharavaani/internal/assist"
	"github.com/ayusman/isharavaani/internal/cache"
	"github.com/ayusman/isharavaani/internal/capture"
	"github.com/ayusman/isharavaani/internal/config"
	"github.com/ayusman/isharavaani/internal/llm"
	"github.com/ayusman/isharavaani/internal/logger"
	"github.com/ayusman/isharavaani/internal/server"
	"github.com/ayusman/isharavaani/internal/session"
	"github.com/ayusman/isharavaani/internal/speech"
	"github.com/ayusman/isharavaani/internal/store"
	"github.com/ayusman/isharavaani/internal/tray"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("isharavaani exited")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	defer gen.Close()

	lookups, closeCache := newCache(ctx, cfg, log)
	defer closeCache()

	lang, err := assist.ParseLanguage(cfg.PrimaryLanguage)
	if err != nil {
		return fmt.Errorf("PRIMARY_LANGUAGE: %w", err)
	}

	svc := assist.NewService(gen)
	assistant := assist.NewCached(svc, lookups, cfg.CacheTTL, log)

	sessionCfg := session.Config{
		Interpreter: assistant,
		Translator:  assistant,
		Language:    lang,
		Capacity:    cfg.BufferCapacity,
		Window:      cfg.SubmitWindow,
		Timeout:     cfg.InterpretTimeout,
		Logger:      log,
	}

	srvCfg := server.Config{
		StaticDir: cfg.StaticDir,
		Store:     st,
		Assistant: assistant,
		Session:   sessionCfg,
		Logger:    log,
	}

	var desktop *app.App
	if cfg.CameraEnabled() {
		capCfg := capture.DefaultConfig()
		capCfg.DeviceID = cfg.CameraID

		desktop = app.New(app.Config{
			Capture:         capCfg,
			MotionThreshold: cfg.MotionThreshold,
			Session:         sessionCfg,
			Speaker:         newSpeaker(log),
			Logger:          log,
		})
		if err := desktop.Start(ctx); err != nil {
			return fmt.Errorf("start capture: %w", err)
		}
		defer desktop.Stop()
		srvCfg.Desktop = desktop
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(srvCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":     cfg.Addr,
			"provider": cfg.LLMProvider,
			"static":   cfg.StaticDir,
			"camera":   desktop != nil,
		}).Info("server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if cfg.Desktop && desktop != nil {
		t := tray.New(desktop, log)
		unsubscribe := desktop.Subscribe(t.Update)
		defer unsubscribe()

		t.OnOpen(func() {
			if err := openBrowser(browserURL(cfg.Addr)); err != nil {
				log.WithError(err).Warn("open browser failed")
			}
		})
		t.OnQuit(stop)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func newGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		g, err := llm.NewVertexGemini(ctx, cfg.GCPProject, cfg.GCPLocation, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("vertex gemini: %w", err)
		}
		return g, nil
	case config.ProviderOpenAI:
		g, err := llm.NewOpenAICompatible(llm.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
		if err != nil {
			return nil, fmt.Errorf("openai: %w", err)
		}
		return g, nil
	default:
		return llm.NewEcho(""), nil
	}
}

// newCache uses Redis when REDIS_URL is set and reachable, falling back to
// process memory.
func newCache(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (cache.Cache, func()) {
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err == nil {
			rc := cache.NewRedisCache(rdb, "isharavaani:")
			return rc, func() { rc.Close() }
		}
		log.WithError(err).Warn("redis unavailable, using in-memory cache")
	}
	return cache.NewMemory(cache.DefaultMemorySize, cfg.CacheTTL), func() {}
}

func newSpeaker(log logrus.FieldLogger) speech.Speaker {
	sp, err := speech.Detect()
	if err != nil {
		log.WithError(err).Warn("no speech engine found, speak is disabled")
		return speech.Nop{}
	}
	return sp
}

func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
