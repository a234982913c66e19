package main

import (
	"log"
	"net/http"
	"os"

	"habitgrid/db"
	"habitgrid/internal/auth"
	"habitgrid/internal/server"
)

func main() {
	db.ConnectDB()
	store := db.NewStore(db.GetDB())

	auth.NewAuth()
	tokens := auth.NewService(store, store)

	srv := server.New(store, tokens)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Listening on :%s", port)
	if err := http.ListenAndServe(":"+port, srv.RegisterRoutes()); err != nil {
		log.Fatal(err)
	}
}
