package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"meetings/boardroom/internal/auth"
	"meetings/boardroom/internal/config"
	"meetings/boardroom/internal/db"
	"meetings/boardroom/internal/db/repositories"
	"meetings/boardroom/internal/metrics"
)

// Mints a bearer token for an existing active user, for scripts and local
// testing without going through SMS credentials.
func main() {
	login := flag.String("user", "", "username or email of the user")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to JWT_TTL)")
	flag.Parse()

	if *login == "" {
		log.Fatal("-user is required")
	}

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	gdb, err := db.OpenORM(cfg, metrics.NewMetricsRegistry(nil))
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := repositories.NewUserRepository(gdb).FindByLogin(ctx, *login)
	if err != nil {
		log.Fatalf("find user %q: %v", *login, err)
	}
	if !user.IsActive {
		log.Fatalf("user %q is blocked", *login)
	}

	lifetime := cfg.JWTTTL
	if *ttl > 0 {
		lifetime = *ttl
	}
	token, exp, err := auth.NewTokenIssuer(cfg.JWTSecret, lifetime).Issue(user.ID, user.Username)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}

	fmt.Println("Token:", token)
	fmt.Println("Expires:", exp.Format(time.RFC3339))
}
