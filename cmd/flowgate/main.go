// Package main is the entry point for the flowgate CLI tool.
package main

import (
	"github.com/flowviz/flowgate/internal/cmd"
)

func main() {
	cmd.Execute()
}
