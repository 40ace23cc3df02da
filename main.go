package main

import (
	"github.com/joho/godotenv"

	"sjsage522/jobworker/cmd"
	"sjsage522/jobworker/logger"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	cmd.Execute()
}
