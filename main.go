package main

import (
	"github.com/agromov/postwatch/cmd"
)

func main() {
	cmd.Execute()
}
