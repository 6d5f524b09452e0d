package main

import (
	"github.com/NVIDIA/gpumon/pkg/cli"
)

func main() {
	cli.Execute()
}
