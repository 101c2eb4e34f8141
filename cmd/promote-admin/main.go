// Command promote-admin gives the admin role to a registered account whose
// email is listed in ADMIN_EMAILS.
//
//	promote-admin organiser@suntennis.ro
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/suntennis/tournament-site/internal/config"
	"github.com/suntennis/tournament-site/internal/db"
	"github.com/suntennis/tournament-site/internal/service"
	"github.com/suntennis/tournament-site/internal/store"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: promote-admin <email>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	database, err := db.InitDB(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	users := service.NewUserService(store.NewUserStore(database), cfg.AdminEmails)
	user, err := users.PromoteAdmin(context.Background(), os.Args[1])
	if err != nil {
		log.Fatal("Failed to promote account:", err)
	}
	slog.Info("account promoted", "user_id", user.ID, "email", user.Email)
}
