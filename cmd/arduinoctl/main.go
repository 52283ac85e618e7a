package main

import "arduinoctl/internal/cli"

func main() {
	cli.Execute()
}
