package main

import (
	"os"

	"taskflow/internal/cli"
	"taskflow/internal/logger"
)

func main() {
	code := cli.Execute()
	logger.Sync()
	os.Exit(code)
}
