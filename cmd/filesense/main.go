package main

import "github.com/filesense/filesense/internal/cli"

func main() {
	cli.Execute()
}
