package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/Cristi-la/EOL-Net/internal/auth"
	"github.com/Cristi-la/EOL-Net/internal/config"
	"github.com/Cristi-la/EOL-Net/internal/domain"
	"github.com/Cristi-la/EOL-Net/internal/events"
	"github.com/Cristi-la/EOL-Net/internal/observability"
	"github.com/Cristi-la/EOL-Net/internal/persistence"
	"github.com/Cristi-la/EOL-Net/internal/repository"
	"github.com/Cristi-la/EOL-Net/internal/service"
	"github.com/Cristi-la/EOL-Net/internal/worker"
)

var cliActor = events.Actor{Kind: events.ActorCLI}

type userAdmin interface {
	CreateUser(ctx context.Context, actor events.Actor, input service.UserCreateInput) (*domain.User, error)
}

type vendorAdmin interface {
	CreateVendor(ctx context.Context, name string) (*domain.Vendor, error)
}

type tokenAdmin interface {
	Create(ctx context.Context, actor events.Actor, input service.TokenCreateInput) (*service.IssuedToken, error)
	List(ctx context.Context) ([]domain.APIToken, error)
	Delete(ctx context.Context, actor events.Actor, id string) error
}

// container holds what the admin commands need. Every command opens its own.
type container struct {
	cfg     *config.Config
	logger  *zap.Logger
	pg      *persistence.Postgres
	users   *service.AuthService
	tokens  *service.TokenService
	catalog *service.CatalogService
}

func newContainer(ctx context.Context) (*container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	vendorRepo := repository.NewVendorRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	return &container{
		cfg:    cfg,
		logger: logger,
		pg:     pg,
		users: service.NewAuthService(cfg.Auth, service.AuthDependencies{
			UserRepo:   userRepo,
			Dispatcher: dispatcher,
		}),
		tokens: service.NewTokenService(service.TokenDependencies{
			TokenRepo:   repository.NewTokenRepository(pool),
			UserRepo:    userRepo,
			VendorRepo:  vendorRepo,
			Credentials: auth.NewCredentialManager(cfg.Auth.JWTSecret),
			Dispatcher:  dispatcher,
		}),
		catalog: service.NewCatalogService(service.CatalogDependencies{
			VendorRepo: vendorRepo,
			EntityRepo: repository.NewEntityRepository(pool),
			Dispatcher: dispatcher,
		}),
	}, nil
}

func (c *container) close() {
	c.pg.Close()
	_ = c.logger.Sync()
}

func runMigrate(ctx context.Context, c *container) error {
	return persistence.RunMigrations(ctx, c.pg.PoolHandle(), c.cfg.Postgres.MigrationsDir, c.logger)
}

func runCreateUser(ctx context.Context, users userAdmin, w io.Writer, input service.UserCreateInput) error {
	user, err := users.CreateUser(ctx, cliActor, input)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "created user %s (%s) admin=%t\n", user.Username, user.ID, user.IsAdmin)
	return err
}

func runCreateVendor(ctx context.Context, vendors vendorAdmin, w io.Writer, name string) error {
	vendor, err := vendors.CreateVendor(ctx, name)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "created vendor %s (%d)\n", vendor.Name, vendor.ID)
	return err
}

// runCreateToken prints the credential. It is not stored and cannot be shown again.
func runCreateToken(ctx context.Context, tokens tokenAdmin, w io.Writer, input service.TokenCreateInput) error {
	issued, err := tokens.Create(ctx, cliActor, input)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w,
		"created token %s (%s)\nexpires: %s\ncredential: %s\n\nStore the credential now; it will not be shown again.\n",
		issued.Token.Name, issued.Token.ID, issued.ExpiresAt.UTC().Format(time.RFC3339), issued.Credential)
	return err
}

func runListTokens(ctx context.Context, tokens tokenAdmin, w io.Writer, now time.Time) error {
	list, err := tokens.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tOWNER\tPERMS\tVENDORS\tTHROTTLE\tVALID UNTIL\tVALID")
	for i := range list {
		token := &list[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			token.ID,
			token.Name,
			token.OwnerID,
			permString(token),
			formatVendors(token.AllowedVendors),
			token.ThrottleClass,
			token.ValidUntil.UTC().Format(time.RFC3339),
			token.IsValid(now),
		)
	}
	return tw.Flush()
}

func runDeleteToken(ctx context.Context, tokens tokenAdmin, w io.Writer, id string) error {
	if err := tokens.Delete(ctx, cliActor, id); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "revoked token %s\n", id)
	return err
}

// permString renders capabilities as w/e/d, with "-" for each one not granted.
func permString(token *domain.APIToken) string {
	flags := []byte("---")
	if token.CanWrite {
		flags[0] = 'w'
	}
	if token.CanEdit {
		flags[1] = 'e'
	}
	if token.CanDelete {
		flags[2] = 'd'
	}
	return string(flags)
}

func formatVendors(ids []int64) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// parseVendors reads a comma-separated vendor id list.
func parseVendors(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid vendor id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseValidUntil accepts RFC 3339 timestamps or YYYY-MM-DD dates (midnight UTC).
func parseValidUntil(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid valid-until %q: use RFC 3339 or YYYY-MM-DD", raw)
	}
	return &t, nil
}
