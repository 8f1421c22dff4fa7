package main

import (
	"os"

	"github.com/JonMunkholm/PharmaDash/internal/cli"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file may supply DATA_PATH; real env vars win
	_ = godotenv.Load()
	os.Exit(cli.Execute())
}
