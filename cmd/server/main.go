package main

import "profitlens/internal/cli"

func main() {
	cli.Execute()
}
