package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/dmitrijs2005/whatbmphotos/internal/client/client"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/config"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/credentials"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/notify"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/pagination"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/reconcile"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/services"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/session"
	"github.com/dmitrijs2005/whatbmphotos/internal/filex"
	"github.com/dmitrijs2005/whatbmphotos/internal/i18n"
	"github.com/dmitrijs2005/whatbmphotos/internal/logging"
)

type App struct {
	config   *config.Config
	log      logging.Logger
	db       *sql.DB
	tr       *i18n.Translator
	notifier notify.Notifier
	rep      *reconcile.Reporter
	session  *session.Manager

	authService     services.AuthService
	settingsService services.SettingsService
	photoService    services.PhotoService
	gallery         *reconcile.Gallery

	mu     sync.Mutex
	album  *reconcile.FaceAlbum
	linker *reconcile.FaceLinker

	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens local storage under c.DataDir and wires the API client,
// session manager and views. Commands read from in and print to out.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	dataDir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	c.DataDir = dataDir

	db, err := client.InitDatabase(ctx, c.DatabasePath())
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	key, err := credentials.LoadKey(ctx, db, c.StorePassphrase, dataDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("credential key: %w", err)
	}
	store, err := credentials.NewStore(db, key)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	tr, err := i18n.New(c.Language)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	transport := client.NewTransport(c.BaseURL, &http.Client{Timeout: c.RequestTimeout}, log)

	var opts []session.Option
	if c.CoalesceRefresh {
		opts = append(opts, session.WithCoalescedRefresh())
	}
	mgr := session.NewManager(transport, store, log, opts...)
	api := client.NewAPI(transport, mgr)

	a := &App{
		config:   c,
		log:      log.With("component", "cli"),
		db:       db,
		tr:       tr,
		notifier: notify.NewWriter(out),
		session:  mgr,
		reader:   bufio.NewReader(in),
		out:      out,
	}
	a.rep = reconcile.NewReporter(a.notifier, log, a.forceSignOut)

	a.authService = services.NewAuthService(api, mgr, tr, log)
	a.settingsService = services.NewSettingsService(store, tr)
	a.photoService = services.NewPhotoService(api, transport.HTTPClient(), c.DownloadPath(), tr, log)
	a.gallery = reconcile.NewGallery(api, a.rep, a.photoService,
		pagination.WithTimeout(c.RequestTimeout), pagination.WithLogger(log))

	if c.Language == "" {
		if err := a.settingsService.Restore(ctx); err != nil {
			a.log.Warn(ctx, "stored language unreadable", "error", err)
		}
	}
	return a, nil
}

// Run checks the stored session, shows the gallery when signed in and then
// serves commands until the user exits or in is exhausted.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.watchSession(ctx)

	if a.authService.IsAuthenticated(ctx) {
		_ = a.Home(ctx)
	} else {
		a.rep.Info(a.tr.T("login.loginRequired"))
	}

	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn(context.Background(), "closing database", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.State().Authenticated()
}

func (a *App) status() string {
	if a.isLoggedIn() {
		return "[" + a.tr.Language() + "]"
	}
	return "[signed out]"
}

// watchSession logs changes of the authenticated flag.
func (a *App) watchSession(ctx context.Context) {
	ch, cancel := a.session.State().Subscribe()
	defer cancel()

	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return
			}
			a.log.Info(ctx, "session state changed", "authenticated", v)
		case <-ctx.Done():
			return
		}
	}
}

// forceSignOut is the single reaction to an unrecoverable 401: both tokens
// go and the user is told once.
func (a *App) forceSignOut(ctx context.Context, err error) {
	a.log.Warn(ctx, "session ended", "error", err)
	if serr := a.session.SignOut(ctx); serr != nil {
		a.log.Error(ctx, "sign out", "error", serr)
	}
	a.closeViews()
	a.rep.Info(a.tr.T("settings.sessionExpired"))
}

func (a *App) closeViews() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.album = nil
	a.linker = nil
}

// requireLogin reports loginRequired and returns false when signed out.
func (a *App) requireLogin() bool {
	if a.isLoggedIn() {
		return true
	}
	a.rep.Info(a.tr.T("login.loginRequired"))
	return false
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
