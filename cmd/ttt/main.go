package main

import "github.com/mcoot/tictactoe3d/internal/cli"

func main() {
	cli.Execute()
}
