package main

import (
	"github.com/calamoni/csusb-ccdc-sub000/pkg/cli"
)

func main() {
	cli.Execute()
}
