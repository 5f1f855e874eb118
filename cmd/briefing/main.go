// Command briefing runs the idea briefing interview.
package main

import "github.com/berth-dev/briefing/internal/cli"

func main() {
	cli.Execute()
}
