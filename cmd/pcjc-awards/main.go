package main

import "github.com/pfrederiksen/pcjc-awards/internal/cli"

func main() {
	cli.Execute()
}
