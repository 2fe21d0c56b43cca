package main

import "github.com/kozaktomas/tag-search/cmd"

func main() {
	cmd.Execute()
}
