// The main package for the mapproxy-seed executable.
package main

import "github.com/zstadler/mapproxy/cmd/mapproxy-seed/cmd"

func main() {
	cmd.Execute()
}
