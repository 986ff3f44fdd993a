// Command authflow-demo walks through the register, password reset and
// login screens against the local identity backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	auth "github.com/goliatone/go-auth-flows"
	"github.com/goliatone/go-auth-flows/activitymap"
	"github.com/goliatone/go-auth-flows/metrics"
	"github.com/goliatone/go-auth-flows/provider/local"
	"github.com/goliatone/go-auth-flows/screens"
	"github.com/goliatone/go-print"
	"github.com/prometheus/client_golang/prometheus"
)

const devSigningKey = "authflow-demo-development-signing-key"

func main() {
	email := flag.String("email", "demo@example.com", "account email")
	password := flag.String("password", "demo-pass-1", "initial password")
	newPassword := flag.String("new-password", "demo-pass-2", "password set through the reset flow")
	metricsAddr := flag.String("metrics-addr", "", "serve /metrics on this address and wait for interrupt")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *email, *password, *newPassword, *metricsAddr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, email, password, newPassword, metricsAddr string) error {
	logger := auth.DefaultLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mailer := newInbox()
	opts := []local.Option{
		local.WithLogger(logger),
		local.WithMailer(mailer),
	}

	if cfg.DatabaseDSN != "" {
		db, err := local.OpenSQLite(cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		defer db.Close()

		store := local.NewBunStore(db)
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		opts = append(opts, local.WithStore(store))
	}

	provider, err := local.NewProvider(cfg, opts...)
	if err != nil {
		return err
	}
	defer provider.Close()

	registry := auth.NewRegistry(auth.WithRegistryLogger(logger))
	if err := registry.Register(provider, true); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	audit := activitymap.Sink(func(_ context.Context, record activitymap.Normalized) error {
		logger.Debug("activity", "record", print.MaybePrettyJSON(record))
		return nil
	})

	repo, err := auth.NewRepositoryFromRegistry(registry,
		auth.WithLogger(logger),
		auth.WithActivitySink(auth.ActivitySinkFunc(func(ctx context.Context, event auth.ActivityEvent) error {
			return errors.Join(collector.Record(ctx, event), audit.Record(ctx, event))
		})),
	)
	if err != nil {
		return err
	}

	monitor := auth.NewStateMonitor(repo, auth.WithStateMonitorLogger(logger))
	monitor.Start(ctx)
	go logStates(ctx, monitor, logger)

	if err := register(ctx, repo, email, password); err != nil {
		return err
	}
	if err := repo.SignOut(ctx); err != nil {
		return err
	}

	if err := forgotPassword(ctx, repo, email); err != nil {
		return err
	}
	code, err := mailer.resetCode(ctx, email)
	if err != nil {
		return err
	}
	if err := resetPassword(ctx, repo, code, newPassword); err != nil {
		return err
	}

	session, err := login(ctx, repo, email, newPassword)
	if err != nil {
		return err
	}
	fmt.Println("signed in:")
	fmt.Println(print.MaybePrettyJSON(session))

	if metricsAddr == "" {
		return nil
	}
	return serveMetrics(ctx, metricsAddr, reg, logger)
}

func loadConfig() (local.Config, error) {
	if os.Getenv(local.EnvPrefix+"SIGNING_KEY") == "" {
		os.Setenv(local.EnvPrefix+"SIGNING_KEY", devSigningKey)
	}
	return local.LoadConfig(nil)
}

func register(ctx context.Context, repo auth.Repository, email, password string) error {
	m := screens.NewRegisterMachine(repo, screens.WithContext(ctx))
	defer m.Close()

	m.OnAction(screens.FullNameChanged{Value: "Demo User"})
	m.OnAction(screens.EmailChanged{Value: email})
	m.OnAction(screens.PasswordChanged{Value: password})
	m.OnAction(screens.ConfirmPasswordChanged{Value: password})
	m.OnAction(screens.TermsToggled{Accepted: true})
	m.OnAction(screens.Submit{})

	return expect[screens.NavigateToHome](ctx, "register", m.Effects())
}

func forgotPassword(ctx context.Context, repo auth.Repository, email string) error {
	m := screens.NewForgotPasswordMachine(repo, screens.WithContext(ctx))
	defer m.Close()

	m.OnAction(screens.EmailChanged{Value: email})
	m.OnAction(screens.Submit{})

	return expect[screens.ShowMessage](ctx, "forgot password", m.Effects())
}

func resetPassword(ctx context.Context, repo auth.Repository, code, password string) error {
	m := screens.NewResetPasswordMachine(repo, screens.WithContext(ctx), screens.WithResetCode(code))
	defer m.Close()

	m.OnAction(screens.PasswordChanged{Value: password})
	m.OnAction(screens.ConfirmPasswordChanged{Value: password})
	m.OnAction(screens.Submit{})

	return expect[screens.NavigateToLogin](ctx, "reset password", m.Effects())
}

func login(ctx context.Context, repo auth.Repository, email, password string) (*auth.UserSession, error) {
	m := screens.NewLoginMachine(repo, screens.WithContext(ctx))
	defer m.Close()

	m.OnAction(screens.EmailChanged{Value: email})
	m.OnAction(screens.PasswordChanged{Value: password})
	m.OnAction(screens.Submit{})

	if err := expect[screens.NavigateToHome](ctx, "login", m.Effects()); err != nil {
		return nil, err
	}
	return m.State().User, nil
}

// expect waits for an effect of type E, failing on ShowError.
func expect[E screens.Effect](ctx context.Context, screen string, effects <-chan screens.Effect) error {
	timeout := time.NewTimer(10 * time.Second)
	defer timeout.Stop()

	for {
		select {
		case effect := <-effects:
			switch e := effect.(type) {
			case E:
				return nil
			case screens.ShowError:
				return fmt.Errorf("%s: %s", screen, e.Message)
			case screens.ShowMessage:
				fmt.Printf("[%s] %s\n", screen, e.Message)
			}
		case <-timeout.C:
			return fmt.Errorf("%s: no response", screen)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func logStates(ctx context.Context, monitor *auth.StateMonitor, logger auth.Logger) {
	for state := range monitor.Subscribe(ctx) {
		logger.Info("auth state changed", "state", auth.StateName(state))
	}
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger auth.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// inbox is a local.Mailer that hands reset codes back to the demo.
type inbox struct {
	mu     sync.Mutex
	resets map[string]chan string
}

func newInbox() *inbox {
	return &inbox{resets: make(map[string]chan string)}
}

func (i *inbox) box(email string) chan string {
	i.mu.Lock()
	defer i.mu.Unlock()
	ch, ok := i.resets[email]
	if !ok {
		ch = make(chan string, 1)
		i.resets[email] = ch
	}
	return ch
}

func (i *inbox) SendPasswordReset(_ context.Context, email, code string) error {
	select {
	case i.box(email) <- code:
	default:
	}
	return nil
}

func (i *inbox) SendEmailVerification(_ context.Context, email, code string) error {
	fmt.Printf("verification code for %s: %s\n", email, code)
	return nil
}

func (i *inbox) resetCode(ctx context.Context, email string) (string, error) {
	select {
	case code := <-i.box(email):
		return code, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
