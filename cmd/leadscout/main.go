package main

import (
	"log"

	"github.com/leadscout/leadscout/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ leadscout failed to start: %v", err)
	}
}
