package main

import "github.com/tejashwikalptaru/moodtune/internal/cli"

func main() {
	cli.Execute()
}
