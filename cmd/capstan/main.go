package main

import (
	"os"

	"github.com/capstanhq/capstan/cmd/capstan/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
