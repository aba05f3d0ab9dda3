package main

import "github.com/saturnino-fabrica-de-software/facelabel/internal/cli"

func main() {
	cli.Execute()
}
