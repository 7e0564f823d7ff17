package main

import (
	"github.com/MeKo-Tech/votershield/cmd/votershield/cmd"
)

func main() {
	cmd.Execute()
}
