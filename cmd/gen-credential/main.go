// Command gen-credential creates a provider API credential and prints its
// application secret. With -admin-token it instead prints a signed admin
// token for the client's sync endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"catalogsync/internal/config"
	"catalogsync/internal/logger"
	"catalogsync/internal/repositories"
	"catalogsync/internal/services"
	"catalogsync/pkg/database"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a TOML config file")
	username := flag.String("username", "", "credential username or token subject")
	capabilities := flag.String("capabilities", "manage_catalog", "comma separated capabilities")
	adminToken := flag.Bool("admin-token", false, "print an admin JWT instead of creating a credential")
	ttl := flag.Duration("ttl", 24*time.Hour, "admin token lifetime")
	flag.Parse()

	if err := run(*configPath, *username, splitCapabilities(*capabilities), *adminToken, *ttl); err != nil {
		fmt.Fprintf(os.Stderr, "gen-credential: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, username string, capabilities []string, adminToken bool, ttl time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New(logger.Options{Level: "warn", Format: cfg.Log.Format, Output: os.Stderr})

	if adminToken {
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required to sign admin tokens")
		}
		token, err := services.NewAuthService(nil, cfg.Auth.JWTSecret, log).IssueAdminToken(username, capabilities, ttl)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.Database.URL, log)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	auth := services.NewAuthService(repositories.NewCredentialRepo(pool), cfg.Auth.JWTSecret, log)
	secret, err := auth.CreateCredential(ctx, username, capabilities)
	if err != nil {
		return err
	}
	fmt.Printf("username: %s\napplication secret: %s\n", username, secret)
	return nil
}

func splitCapabilities(raw string) []string {
	var out []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
