// Command seed populates a development database with demo users and
// products, some of them on offer, and prints a bearer token per user.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository/postgres"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/migrations"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/logger"
)

// seedNamespace derives stable user ids so reruns upsert the same rows.
var seedNamespace = uuid.MustParse("6f1d7c1e-8a4b-4e1f-9d3a-2c5b7e9f0a13")

type userDef struct {
	name string
	role string
	id   string // derived from name
}

type productDef struct {
	seller   string
	name     string
	desc     string
	price    string
	stock    int
	discount int64 // percentage, 0 for none
}

var users = []userDef{
	{name: "Tienda Norte", role: domain.RoleSeller},
	{name: "Casa Sur", role: domain.RoleSeller},
	{name: "Ana Compradora", role: domain.RoleCustomer},
	{name: "Admin", role: domain.RoleAdmin},
}

var products = []productDef{
	{seller: "Tienda Norte", name: "Zapatillas de correr", desc: "Amortiguación ligera", price: "1299.00", stock: 40, discount: 20},
	{seller: "Tienda Norte", name: "Mochila urbana", desc: "25 litros, impermeable", price: "849.50", stock: 25},
	{seller: "Tienda Norte", name: "Botella térmica", desc: "Acero inoxidable, 750 ml", price: "399.00", stock: 100, discount: 15},
	{seller: "Casa Sur", name: "Cafetera de émbolo", desc: "Vidrio borosilicato, 1 l", price: "559.00", stock: 30, discount: 30},
	{seller: "Casa Sur", name: "Juego de sartenes", desc: "Antiadherente, 3 piezas", price: "1899.99", stock: 12},
	{seller: "Casa Sur", name: "Lámpara de escritorio", desc: "LED regulable", price: "699.00", stock: 18, discount: 10},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("storefront-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("seed complete")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	byName, err := seedUsers(ctx, pool, log)
	if err != nil {
		return err
	}

	settings := service.Settings{
		StoreTimeout:   cfg.StoreTimeout,
		DiscountWindow: cfg.DiscountDefaultWindow,
	}
	svc := service.NewProductService(
		postgres.NewProductRepository(pool), nil,
		event.NewProducer(event.Discard{}, log), settings, log,
	)
	if err := seedProducts(ctx, svc, byName, log); err != nil {
		return err
	}

	jwt := auth.NewJWTManager(cfg.JWTSecret)
	for _, u := range users {
		token, err := jwt.GenerateAccessToken(u.id, u.role, 24*time.Hour)
		if err != nil {
			return fmt.Errorf("sign token for %s: %w", u.name, err)
		}
		fmt.Printf("%-16s %-9s %s\n  %s\n", u.name, u.role, u.id, token)
	}
	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) (map[string]userDef, error) {
	byName := make(map[string]userDef, len(users))
	for i := range users {
		users[i].id = uuid.NewSHA1(seedNamespace, []byte(users[i].name)).String()
		_, err := pool.Exec(ctx,
			`INSERT INTO users (id, display_name, role)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name, role = EXCLUDED.role`,
			users[i].id, users[i].name, users[i].role,
		)
		if err != nil {
			return nil, fmt.Errorf("upsert user %q: %w", users[i].name, err)
		}
		byName[users[i].name] = users[i]
		log.Info("user seeded", slog.String("name", users[i].name), slog.String("id", users[i].id))
	}
	return byName, nil
}

func seedProducts(ctx context.Context, svc *service.ProductService, byName map[string]userDef, log *slog.Logger) error {
	for _, def := range products {
		seller := byName[def.seller]
		actor := domain.Actor{ID: seller.id, Role: seller.role}

		p, err := svc.CreateProduct(ctx, actor, service.CreateProductInput{
			Name:        def.name,
			Description: def.desc,
			Price:       decimal.RequireFromString(def.price),
			Stock:       def.stock,
		})
		if err != nil {
			return fmt.Errorf("create product %q: %w", def.name, err)
		}

		if def.discount > 0 {
			p, err = svc.UpdateProduct(ctx, actor, p.ID, service.UpdateProductInput{
				Discount: &service.DiscountInput{Percentage: decimal.NewFromInt(def.discount)},
			})
			if err != nil {
				return fmt.Errorf("discount product %q: %w", def.name, err)
			}
		}
		log.Info("product seeded",
			slog.String("name", p.Name),
			slog.String("id", p.ID),
			slog.String("current_price", p.CurrentPrice.StringFixed(2)),
		)
	}
	return nil
}
