package main

import (
	"log"

	"github.com/patric-chuzhbe/usersvc/internal/app"
	"github.com/patric-chuzhbe/usersvc/internal/logger"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	defer application.Close()

	if err := application.Run(); err != nil {
		logger.Log.Fatalln("application stopped with error", "error", err)
	}
}
