package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/example/animal-store/internal/catalog"
	"github.com/example/animal-store/internal/config"
	"github.com/example/animal-store/internal/store"
	"github.com/example/animal-store/internal/user"
)

func main() {
	var (
		file  = flag.String("file", "data/products.json", "path to the product catalog JSON file")
		wipe  = flag.Bool("wipe", false, "delete existing products and reviews before seeding")
		admin = flag.Bool("admin", false, "also create an admin account from ADMIN_* env vars")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Seeder] Configuration error: %v", err)
	}

	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Seeder] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	if err := store.EnsureSchema(db); err != nil {
		log.Fatalf("[Seeder] Failed to ensure schema: %v", err)
	}

	ctx := context.Background()

	if *wipe {
		// Reviews go first; they reference products.
		if _, err := db.ExecContext(ctx, "DELETE FROM reviews"); err != nil {
			log.Fatalf("[Seeder] Failed to wipe reviews: %v", err)
		}
		if _, err := db.ExecContext(ctx, "DELETE FROM products"); err != nil {
			log.Fatalf("[Seeder] Failed to wipe products: %v", err)
		}
		log.Println("[Seeder] Wiped existing products and reviews")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("[Seeder] Failed to read %s: %v", *file, err)
	}

	var inputs []catalog.ProductInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		log.Fatalf("[Seeder] Failed to parse %s: %v", *file, err)
	}

	catalogSvc := catalog.NewService(store.NewPostgresProductStore(db), nil)

	seeded := 0
	for _, in := range inputs {
		p, err := catalogSvc.Create(ctx, in)
		if err != nil {
			log.Printf("[Seeder] Skipping %q: %v", in.Name, err)
			continue
		}
		seeded++
		log.Printf("[Seeder] Seeded %s (%s)", p.Name, p.ID)
	}
	log.Printf("[Seeder] Done: %d of %d products seeded", seeded, len(inputs))

	if *admin {
		userSvc := user.NewService(store.NewPostgresUserStore(db), nil)
		in := user.RegisterInput{
			Name:     os.Getenv("ADMIN_NAME"),
			Username: os.Getenv("ADMIN_USERNAME"),
			Email:    os.Getenv("ADMIN_EMAIL"),
			Mobile:   os.Getenv("ADMIN_MOBILE"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		}
		u, err := userSvc.RegisterAdmin(ctx, in)
		if err != nil {
			log.Fatalf("[Seeder] Failed to create admin account: %v", err)
		}
		log.Printf("[Seeder] Created admin account %s (%s)", u.Username, u.ID)
	}
}
