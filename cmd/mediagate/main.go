package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"github.com/kalal-stream/mediagate/internal/archive"
	"github.com/kalal-stream/mediagate/internal/config"
	"github.com/kalal-stream/mediagate/internal/httpapi"
	"github.com/kalal-stream/mediagate/internal/linkstore"
	"github.com/kalal-stream/mediagate/internal/logging"
	"github.com/kalal-stream/mediagate/internal/ratelimit"
	"github.com/kalal-stream/mediagate/internal/tgupstream"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zlog, err := logging.New(os.Getenv("DEBUG") == "true")
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	identities, err := connectIdentities(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("connect identities", zap.Error(err))
	}

	pool, err := tgupstream.NewPool(identities, zlog)
	if err != nil {
		zlog.Fatal("build identity pool", zap.Error(err))
	}

	sessions := tgupstream.NewSessionPool(makeDialer(cfg, zlog), zlog)

	locator := &binChannelLocator{
		pool:         pool,
		binChannelID: cfg.BinChannelID,
		accessHash:   cfg.BinChannelAccessHash,
	}
	descriptorCache := tgupstream.NewDescriptorCache(locator, zlog)
	go descriptorCache.RunJanitor(ctx)

	store, err := buildLinkStore(ctx, cfg)
	if err != nil {
		zlog.Fatal("build link store", zap.Error(err))
	}
	defer store.Close(context.Background())

	limiter := ratelimit.New()

	toPeer := &tg.InputPeerChannel{ChannelID: cfg.BinChannelID, AccessHash: cfg.BinChannelAccessHash}
	copier := archive.NewTGForwardCopier(pool.Least().API, toPeer, randomID)
	archiver := archive.New(copier, cfg.BinChannelID, zlog)

	gw := newGateway(pool, sessions, descriptorCache, cfg.BinChannelID, zlog)

	srv := httpapi.New(store, gw, limiter, archiver, httpapi.Config{
		FQDN:           cfg.FQDN,
		HasSSL:         cfg.HasSSL,
		ServeDomain:    string(cfg.ServeDomain),
		DualDomainWeb:  cfg.DualDomainWeb,
		DualDomainWebX: cfg.DualDomainWebX,
	}, zlog)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port),
		Handler: srv.Handler(),
	}

	go func() {
		<-ctx.Done()
		zlog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			zlog.Error("shutdown error", zap.Error(err))
		}
	}()

	zlog.Info("starting mediagate", zap.String("addr", httpServer.Addr))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zlog.Fatal("server error", zap.Error(err))
	}
}

// connectIdentities authenticates one telegram.Client per bot token
// (or a single one when MultiClient is off), mirroring the original's
// startup loop over WORKERS clients in vars.py/main's bot registration.
func connectIdentities(ctx context.Context, cfg config.Config, zlog *zap.Logger) ([]*tgupstream.Identity, error) {
	tokens := cfg.BotTokens
	if !cfg.MultiClient && len(tokens) > 1 {
		tokens = tokens[:1]
	}

	var out []*tgupstream.Identity
	for i, token := range tokens {
		client := telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{})

		connected := make(chan error, 1)
		go func() {
			connected <- client.Run(ctx, func(ctx context.Context) error {
				if _, err := client.Auth().Bot(ctx, token); err != nil {
					return fmt.Errorf("bot auth: %w", err)
				}

				api := client.API()
				self, err := tgupstream.ResolveSelf(ctx, api)
				if err != nil {
					return err
				}

				out = append(out, &tgupstream.Identity{
					Index:  i,
					Client: client,
					API:    api,
					Self:   self,
					HomeDC: 2, // Telegram's default production DC for bot sessions
				})

				connected <- nil
				<-ctx.Done()
				return ctx.Err()
			})
		}()

		select {
		case err := <-connected:
			if err != nil && err != context.Canceled {
				return nil, fmt.Errorf("identity %d: %w", i, err)
			}
		case <-time.After(30 * time.Second):
			return nil, fmt.Errorf("identity %d: timed out connecting", i)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no identities connected")
	}
	return out, nil
}

// makeDialer builds the dial function the session pool uses for cross-DC
// sessions: a fresh telegram.Client pinned to the target DC, authorized
// via the exported-authorization import the caller performs afterward.
func makeDialer(cfg config.Config, zlog *zap.Logger) func(ctx context.Context, dcID int) (*telegram.Client, error) {
	return func(ctx context.Context, dcID int) (*telegram.Client, error) {
		client := telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{DC: dcID})
		ready := make(chan error, 1)
		go func() {
			ready <- client.Run(ctx, func(ctx context.Context) error {
				ready <- nil
				<-ctx.Done()
				return ctx.Err()
			})
		}()
		select {
		case err := <-ready:
			if err != nil {
				return nil, err
			}
		case <-time.After(15 * time.Second):
			return nil, fmt.Errorf("dial dc %d: timed out", dcID)
		}
		return client, nil
	}
}

func buildLinkStore(ctx context.Context, cfg config.Config) (linkstore.Store, error) {
	if cfg.DatabaseURL == "" {
		return linkstore.NewMemoryStore(), nil
	}
	return linkstore.NewMongoStore(ctx, cfg.DatabaseURL, "mediagate")
}
