package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/five82/cueweb/internal/actions"
	"github.com/five82/cueweb/internal/config"
	"github.com/five82/cueweb/internal/cueapi"
	"github.com/five82/cueweb/internal/fetch"
	"github.com/five82/cueweb/internal/health"
	"github.com/five82/cueweb/internal/jobtable"
	"github.com/five82/cueweb/internal/monitor"
	"github.com/five82/cueweb/internal/notify"
	"github.com/five82/cueweb/internal/prefs"
	"github.com/five82/cueweb/internal/ui"
)

const visitTimeout = 3 * time.Second

// Options configure the monitor application.
type Options struct {
	ConfigPath string
	PollEvery  int    // seconds; zero uses the configured interval
	Username   string // empty uses the configured username
	ThemeName  string
}

// Run boots the monitor TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath, config.RoleMonitor)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	username := cfg.Username
	if opts.Username != "" {
		username = opts.Username
	}

	storage, closeStorage, err := openStorage(cfg.Storage, username)
	if err != nil {
		return err
	}
	defer closeStorage()

	client, err := cueapi.NewClient(cfg.PublicURL)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	recorder := notify.NewRecorder(nil)
	notifier := notify.NewClient(recorder)
	fetcher := fetch.New(client, notifier)
	dispatcher := actions.New(client, fetcher, notifier)

	store := jobtable.NewStore(jobtable.Restore(storage, jobtable.Initial(username)))
	if store.State().Username != username {
		store.Dispatch(jobtable.SetUsername(username))
	}

	syncer := monitor.NewSyncer(store, fetcher)
	defer syncer.Stop()
	autoloader := monitor.NewAutoloader(ctx, store, fetcher)
	defer autoloader.Wait()
	searcher := monitor.NewSearcher(store, fetcher, cfg.SearchDebounce)
	defer searcher.Close()

	store.Subscribe(jobtable.Mirror(storage))
	store.Subscribe(syncer.Observe)
	store.Subscribe(autoloader.Observe)

	recordVisit(ctx, client, username)

	interval := cfg.PollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	tracker := &health.Tracker{}
	refresh := pollRefresh(syncer)

	// Populate the table before the UI starts
	changed, err := startupLoad(ctx, autoloader, refresh)
	tracker.Record(changed, err)

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	StartPoller(pollCtx, tracker, refresh, interval)

	return ui.Run(ui.Options{
		Context:   ctx,
		Store:     store,
		Search:    searcher,
		Actions:   dispatcher,
		Frames:    fetcher,
		Logs:      client,
		Toasts:    recorder,
		Health:    tracker,
		Storage:   storage,
		ThemeName: opts.ThemeName,
	})
}

// pollRefresh is the refresh run on every poll tick. It only refreshes
// monitored jobs. Autoload reacts to AutoloadMine and Username changes
// through the store, so a tick never re-adds jobs the user unmonitored.
func pollRefresh(syncer *monitor.Syncer) RefreshFunc {
	return syncer.Tick
}

// startupLoad runs the autoload once for the restored state, then the first
// refresh.
func startupLoad(ctx context.Context, autoloader *monitor.Autoloader, refresh RefreshFunc) (bool, error) {
	added := autoloader.Run(ctx)
	changed, err := refresh(ctx)
	if err != nil {
		return false, err
	}
	return changed || added > 0, nil
}

// openStorage opens the configured UI state backend. The returned close
// func is always safe to call.
func openStorage(cfg config.StorageConfig, username string) (prefs.Storage, func(), error) {
	switch cfg.Backend {
	case config.StorageRedis:
		rs, err := prefs.DialRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, username)
		if err != nil {
			return nil, nil, fmt.Errorf("open ui state: %w", err)
		}
		return rs, func() {
			if err := rs.Close(); err != nil {
				log.Printf("close redis: %v", err)
			}
		}, nil
	default:
		fs, err := prefs.OpenFile(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open ui state: %w", err)
		}
		return fs, func() {}, nil
	}
}

// recordVisit bumps the visit counter. Failures are logged and ignored.
func recordVisit(ctx context.Context, client *cueapi.Client, username string) {
	ctx, cancel := context.WithTimeout(ctx, visitTimeout)
	defer cancel()
	if err := client.RecordVisit(ctx, username); err != nil {
		log.Printf("record visit for %s: %v", username, err)
	}
}
