package main

import "github.com/JonMunkholm/dataquality/internal/cli"

func main() {
	cli.Execute()
}
