// Command wellness-e2e runs the end-to-end UI suite of the Magnolia
// wellness app against an Appium server.
package main

import "github.com/magnolia-collective/wellness-e2e/pkg/cli"

func main() {
	cli.Execute()
}
