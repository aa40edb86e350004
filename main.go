package main

import "rpy-translator/internal/cli"

func main() {
	cli.Execute()
}
