// Command billing runs the order invoicing API and its maintenance tasks.
package main

import (
	"os"

	"github.com/diewo77/go-orders/internal/logger"
)

func main() {
	err := rootCmd.Execute()
	_ = logger.Close()
	if err != nil {
		os.Exit(1)
	}
}
