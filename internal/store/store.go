package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// ErrNotFound is returned when a product or lead does not exist.
var ErrNotFound = eris.New("store: not found")

// Store defines the persistence interface for products and leads.
type Store interface {
	// Products
	CreateProduct(ctx context.Context, p model.Product) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)

	// Leads
	LeadExistsByWebsite(ctx context.Context, website string) (bool, error)
	InsertLead(ctx context.Context, lead model.Lead) (*model.Lead, error)
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	ListRecentLeads(ctx context.Context, limit int) ([]model.Lead, error)
	UpdateLeadScore(ctx context.Context, id string, score int, reason string) error
	SetGeneratedEmail(ctx context.Context, id string, email string) error

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres", "":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	case "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "leadgen.db"
		}
		return NewSQLite(dsn)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}

// DefaultListLimit caps ListRecentLeads when no limit is given.
const DefaultListLimit = 50

func listLimit(n int) int {
	if n <= 0 {
		return DefaultListLimit
	}
	return n
}
