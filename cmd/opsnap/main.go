// opsnap is a snapshot-gated system administration assistant.
package main

import "github.com/opsnap/opsnap/internal/cli"

func main() {
	cli.Execute()
}
