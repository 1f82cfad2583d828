package main

import (
	"github.com/AzielCF/az-agent/cmd"
)

func main() {
	cmd.Execute()
}
