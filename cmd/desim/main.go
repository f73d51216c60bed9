package main

import "github.com/deshima-dev/desim/internal/cli"

func main() {
	cli.Execute()
}
