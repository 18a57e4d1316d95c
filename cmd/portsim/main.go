package main

import "github.com/andrescamacho/portsim-go/internal/adapters/cli"

func main() {
	cli.Execute()
}
