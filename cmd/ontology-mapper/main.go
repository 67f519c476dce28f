package main

import "ontology-mapper/internal/cli"

func main() {
	cli.Execute()
}
