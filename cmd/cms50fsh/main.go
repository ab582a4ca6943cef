package main

import (
	"github.com/robotalks/cms50f.go/pkg/cli/sh"
	"github.com/robotalks/cms50f.go/pkg/download"
)

//go-build: CGO_ENABLED=0

func init() {
	download.SetupFlags()
}

func main() {
	sh.Main()
}
