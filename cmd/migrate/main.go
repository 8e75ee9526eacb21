package main

import (
	"context"
	"log"
	"time"

	"arthik-chat-be/internal/config"
	mongorepo "arthik-chat-be/internal/repository/mongo"
	"arthik-chat-be/pkg/database"
)

// Prepares the schema of the configured session store. DynamoDB tables are
// provisioned outside the application and memory needs nothing.
func main() {
	cfg := config.Load()

	switch cfg.Database.Driver {
	case "postgres", "sqlite":
		if cfg.Database.Connection == "" {
			log.Fatal("Error: DB_CONNECTION_STRING is not set")
		}
		db, err := database.NewGormDB(cfg.Database.Driver, cfg.Database.Connection, true)
		if err != nil {
			log.Fatal("Error: Failed to connect to database:", err)
		}

		log.Println("Running AutoMigrate for chat_sessions and chat_messages...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Error: AutoMigrate failed: %v", err)
		}

	case "mongodb":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client, err := database.NewMongoClient(ctx, cfg.Database.MongoURI)
		if err != nil {
			log.Fatal("Error: Failed to connect to MongoDB:", err)
		}
		defer client.Disconnect(context.Background())

		log.Println("Ensuring MongoDB indexes...")
		if err := mongorepo.EnsureIndexes(ctx, client.Database(cfg.Database.MongoDatabase)); err != nil {
			log.Fatalf("Error: Index creation failed: %v", err)
		}

	default:
		log.Printf("Nothing to migrate for DB_DRIVER=%s", cfg.Database.Driver)
		return
	}

	log.Println("Success: migration completed.")
}
