package main

import "github.com/datascopehq/datascope-cli/cmd"

func main() {
	cmd.Execute()
}
