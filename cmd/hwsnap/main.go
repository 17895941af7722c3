package main

import (
	"github.com/NVIDIA/hwsnap/pkg/cli"
)

func main() {
	cli.Execute()
}
