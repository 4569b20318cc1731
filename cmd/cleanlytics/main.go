package main

import "github.com/JonMunkholm/cleanlytics/internal/cli"

func main() {
	cli.Execute()
}
