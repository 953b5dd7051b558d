package main

import (
	"os"

	"stabilize/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
