// Package main is the entry point for the s2klaunch CLI application.
// It launches and prepares SAP2000 through its automation API.
package main

import (
	"s2klaunch/cli/cmd"
)

func main() {
	cmd.Execute()
}
