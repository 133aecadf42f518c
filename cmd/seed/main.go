package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
	"github.com/openbook/backend/internal/auth"
	"github.com/openbook/backend/internal/database"
	"github.com/openbook/backend/internal/favorites"
	"github.com/openbook/backend/internal/models"
)

// seedBooks are real OpenLibrary works so a seeded database produces
// working detail lookups and covers.
var seedBooks = []models.FavoriteEntry{
	{BookID: "OL45883W", BookTitle: "Dune", CoverID: "11481354"},
	{BookID: "OL27448W", BookTitle: "The Lord of the Rings", CoverID: "9255566"},
	{BookID: "OL82563W", BookTitle: "Harry Potter and the Philosopher's Stone", CoverID: "10521270"},
	{BookID: "OL66554W", BookTitle: "Pride and Prejudice", CoverID: "14348537"},
	{BookID: "OL893415W", BookTitle: "1984", CoverID: "12919045"},
	{BookID: "OL17930368W", BookTitle: "The Martian", CoverID: "9366109"},
	{BookID: "OL46125W", BookTitle: "Foundation", CoverID: "12620089"},
	{BookID: "OL158479W", BookTitle: "Ender's Game", CoverID: "10577015"},
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	userCount := 5
	if len(os.Args) > 1 && os.Args[1] == "--help" {
		fmt.Println("Usage: seed")
		fmt.Println("  Seeds the development database with demo users and favorites.")
		os.Exit(0)
	}

	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		jwtSecret = []byte("dev-secret-do-not-use-in-production")
	}

	authService := auth.NewService(jwtSecret, database.DB)
	store := favorites.NewGormStore(database.DB)
	ctx := context.Background()

	for i := 0; i < userCount; i++ {
		username := gofakeit.Username()
		resp, err := authService.Register(auth.RegisterRequest{
			Email:       gofakeit.Email(),
			Username:    username,
			Password:    "password123",
			DisplayName: gofakeit.Name(),
		})
		if err != nil {
			log.Printf("Skipping user %s: %v", username, err)
			continue
		}

		// Each user favorites a random subset so recommendation profiles
		// differ between accounts.
		count := gofakeit.Number(1, len(seedBooks))
		perm := make([]models.FavoriteEntry, len(seedBooks))
		copy(perm, seedBooks)
		gofakeit.ShuffleAnySlice(perm)
		for _, book := range perm[:count] {
			if _, err := store.Add(ctx, resp.User.ID, book); err != nil {
				log.Printf("Failed to favorite %s for %s: %v", book.BookID, username, err)
			}
		}

		log.Printf("Seeded user %s (%s) with %d favorites", username, resp.User.Email, count)
	}

	log.Println("✅ Seed complete")
}
