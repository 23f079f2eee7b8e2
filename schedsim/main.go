// Package main is the entry point of the schedsim command.
package main

import "github.com/sarchlab/schedsim/schedsim/cmd"

func main() {
	cmd.Execute()
}
