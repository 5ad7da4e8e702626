package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ikkim/captains-log/config"
	"github.com/ikkim/captains-log/internal/app/repository"
	"github.com/ikkim/captains-log/internal/app/service"
	"github.com/ikkim/captains-log/internal/db"
	"github.com/ikkim/captains-log/pkg/logger"
)

// Imports a logbook spreadsheet (the layout produced by /archive/export)
// into an existing account.
func main() {
	yes := flag.Bool("y", false, "skip the confirmation prompt")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: go run ./cmd/seed [-y] <email> <logbook.xlsx>")
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	email := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	filePath := flag.Arg(1)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: "warn", Format: "console"})

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	conn := db.GetDB()
	userRepo := repository.NewUserRepository(conn)
	user, err := userRepo.FindByEmail(email)
	if err != nil {
		log.Fatalf("No account for %s: %v", email, err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Failed to open logbook:", err)
	}
	defer file.Close()

	if !*yes {
		fmt.Printf("Import %s into the archive of %s? (yes/no): ", filePath, user.Email)
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	logbook := service.NewLogbookService(
		conn,
		repository.NewPlanetRepository(conn),
		repository.NewDiscoveryRepository(conn),
	)
	imported, err := logbook.Import(user.ID, file)
	if err != nil {
		log.Fatal("Import failed:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Planets imported: %d\n", imported)
}
