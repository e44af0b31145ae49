package main

import "github.com/LeJamon/xrplbench/internal/cli"

func main() {
	cli.Execute()
}
