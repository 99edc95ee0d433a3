// Command seed-db creates the schema and loads demo roles, products,
// wholesale settings and API keys.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/kart-wholesale/internal/domain/auth"
	"github.com/xenking/kart-wholesale/internal/domain/product"
	"github.com/xenking/kart-wholesale/internal/domain/settings"
	"github.com/xenking/kart-wholesale/internal/storage/postgres"
)

type productJSON struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Category       string              `json:"category"`
	RegularPrice   decimal.Decimal     `json:"regularPrice"`
	SalePrice      decimal.NullDecimal `json:"salePrice"`
	WholesalePrice string              `json:"wholesalePrice"`
}

var roles = []settings.RoleInfo{
	{Key: "administrator", Name: "Administrator"},
	{Key: "customer", Name: "Customer"},
	{Key: "wholesale_customer", Name: "Wholesale Customer"},
}

type options struct {
	databaseURL   string
	productsFile  string
	pepper        string
	wholesaleRole string
	minQuantity   string
	gateMode      string
	keys          map[string]string // role -> API key
}

func main() {
	o := options{keys: map[string]string{}}
	var adminKey, customerKey, wholesalerKey string

	flag.StringVar(&o.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&o.productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&o.pepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or KART_API_KEY_PEPPER env)")
	flag.StringVar(&o.wholesaleRole, "wholesale-role", "wholesale_customer", "role receiving wholesale prices, empty disables")
	flag.StringVar(&o.minQuantity, "min-quantity", "3", "minimum wholesale quantity")
	flag.StringVar(&o.gateMode, "gate-mode", "exact", "quantity rule: exact or at_least")
	flag.StringVar(&adminKey, "admin-key", os.Getenv("KART_SEED_ADMIN_KEY"), "API key for an administrator")
	flag.StringVar(&customerKey, "customer-key", os.Getenv("KART_SEED_CUSTOMER_KEY"), "API key for a regular customer")
	flag.StringVar(&wholesalerKey, "wholesaler-key", os.Getenv("KART_SEED_WHOLESALER_KEY"), "API key for a wholesale customer")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if o.databaseURL == "" {
		o.databaseURL = os.Getenv("DATABASE_URL")
	}
	if o.databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}
	if o.pepper == "" {
		o.pepper = os.Getenv("KART_API_KEY_PEPPER")
	}
	for role, key := range map[string]string{
		"administrator":      adminKey,
		"customer":           customerKey,
		"wholesale_customer": wholesalerKey,
	} {
		if key != "" {
			o.keys[role] = key
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, o); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, o options) error {
	products, err := loadProducts(o.productsFile)
	if err != nil {
		return err
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, o.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	roleRepo := postgres.NewRoleRepository(pool)
	for _, r := range roles {
		if err := roleRepo.Upsert(ctx, r); err != nil {
			return err
		}
	}
	lg.Info("Seeded roles", zap.Int("count", len(roles)))

	productRepo := postgres.NewProductRepository(pool)
	for _, p := range products {
		if err := productRepo.Upsert(ctx, p); err != nil {
			return err
		}
		lg.Debug("Upserted product", zap.String("id", p.ID), zap.String("name", p.Name))
	}
	lg.Info("Seeded products", zap.Int("count", len(products)))

	svc := settings.NewService(postgres.NewOptionRepository(pool), roleRepo)
	cfg, err := svc.Save(ctx, settings.Update{
		MinimumQuantity: &o.minQuantity,
		EligibleRole:    &o.wholesaleRole,
		GateMode:        &o.gateMode,
	})
	if err != nil {
		return errors.Wrap(err, "save wholesale settings")
	}
	lg.Info("Seeded wholesale settings",
		zap.Int("min_quantity", cfg.MinimumQuantity),
		zap.Stringer("role", cfg.EligibleRole),
		zap.String("gate_mode", string(cfg.GateMode)),
	)

	keyRepo := postgres.NewAPIKeyRepository(pool)
	for role, key := range o.keys {
		info := auth.APIKeyInfo{
			ID:      "seed-" + role,
			KeyHash: auth.HashKey(key, []byte(o.pepper)),
			ActorID: "seed-" + role,
			Name:    "Seeded " + role + " key",
			Roles:   []string{role},
		}
		if err := keyRepo.Upsert(ctx, info); err != nil {
			return err
		}
		lg.Info("Seeded API key", zap.String("id", info.ID), zap.String("role", role))
	}
	return nil
}

func loadProducts(path string) ([]product.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read products file")
	}

	var raw []productJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}

	products := make([]product.Product, 0, len(raw))
	for _, p := range raw {
		if p.ID == "" {
			return nil, errors.New("product without id")
		}
		if p.RegularPrice.IsNegative() {
			return nil, errors.Errorf("product %s: negative regular price", p.ID)
		}
		products = append(products, product.Product{
			ID:             p.ID,
			Name:           p.Name,
			Category:       p.Category,
			RegularPrice:   p.RegularPrice,
			SalePrice:      p.SalePrice,
			WholesalePrice: p.WholesalePrice,
		})
	}
	return products, nil
}
