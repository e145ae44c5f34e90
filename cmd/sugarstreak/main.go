// Package main is the entrypoint for sugarstreak, the habit tracker's
// gamification and insight engine.
package main

import "github.com/sugarstreak/sugarstreak/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
