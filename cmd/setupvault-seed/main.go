package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/blackwell-systems/setupvault/internal/app"
)

func main() {
	// A .env file in the working directory may set SETUPVAULT_PATH and
	// SETUPVAULT_LOG_LEVEL. It is optional.
	_ = godotenv.Load()

	if err := app.Execute(); err != nil {
		var exitErr *app.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
