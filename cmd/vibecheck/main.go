package main

import (
	"os"

	"vibecheck.dev/vibecheck/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
