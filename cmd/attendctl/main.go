package main

import "github.com/cmlabs-hris/hris-attendance-engine/internal/cli"

func main() {
	cli.Execute()
}
