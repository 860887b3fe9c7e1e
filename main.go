package main

import (
	"github.com/subosito/gotenv"

	"github.com/stablemail/go-relay/cmd"
)

func main() {
	// load ENV overrides from .env.local if present, never failing
	_ = gotenv.OverLoad(".env.local")

	cmd.Execute()
}
