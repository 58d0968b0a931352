package main

import "github.com/leftp/doctrack/cmd"

func main() {
	cmd.Execute()
}
