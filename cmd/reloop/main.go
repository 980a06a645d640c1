package main

import "github.com/reloop-exchange/reloop/internal/cli"

func main() {
	cli.Execute()
}
