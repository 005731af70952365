package main

import "github.com/KaramelBytes/bizdata-cli/cmd"

func main() {
	cmd.Execute()
}
