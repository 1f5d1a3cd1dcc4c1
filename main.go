// The main package for the fetchmill executable.
package main

import (
	"github.com/harridge/fetchmill/cmd"
)

func main() {
	cmd.Execute()
}
