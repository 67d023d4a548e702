package main

import "github.com/okian/hirepulse/internal/cli"

func main() {
	cli.Execute()
}
