package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/beckworth/redoubt/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}
	cfg := server.LoadConfig()

	store, err := server.OpenStore(cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	srv := server.NewServer(store, server.NewAuth(cfg.JWTSecret))

	log.Printf("listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, srv.Router()); err != nil {
		log.Fatal(err)
	}
}
