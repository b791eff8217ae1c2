// apq - Audit the Postfix mail queue
//
// apq turns the free-form listing printed by postqueue -p into
// structured, filterable records and prints them as JSON, YAML, a bare
// count, or the flattened postqueue -j schema.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/antoniovl/apq/internal/cli"
)

func main() {
	// Optional .env file may supply APQ_* overrides.
	_ = godotenv.Load()

	os.Exit(cli.Execute())
}
