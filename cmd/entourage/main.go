package main

import (
	"os"

	"github.com/entourage/entourage/cmd/entourage/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
