package main

import "github.com/rustyeddy/stockpipe/internal/cli"

func main() {
	cli.Execute()
}
