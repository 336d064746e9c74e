package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/mbukhari/knockout/internal/db"
	"github.com/mbukhari/knockout/internal/live"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	addr := os.Getenv("KNOCKOUT_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	dbPath := os.Getenv("KNOCKOUT_DB")
	if dbPath == "" {
		dbPath = "knockout.db"
	}

	database := db.InitDB(dbPath)
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	hub := live.NewHub()
	go hub.Run()

	router := newRouter(database, hub)

	log.Printf("Server starting on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal(err)
	}
}
