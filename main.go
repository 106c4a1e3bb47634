package main

import (
	"os"

	"gmailfilter2csv/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
