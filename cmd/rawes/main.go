// Command rawes sends raw requests to a search service over HTTP or Thrift.
package main

import "github.com/kbukum/rawes/internal/cli"

func main() {
	cli.Execute()
}
