package main

import "github.com/jackyeh168/venue_loyalty/src/internal/cli"

func main() {
	cli.Execute()
}
