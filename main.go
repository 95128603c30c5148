package main

import (
	"errors"
	"flag"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	"yashubustudio/tasador/internal/app"
)

func main() {
	configPath := flag.String("config", "", "config file (default: ./config.yaml or ./configs/config.yaml)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}
	if err := app.Run(app.Options{ConfigPath: *configPath}); err != nil {
		log.Fatalf("tasador: %v", err)
	}
}
