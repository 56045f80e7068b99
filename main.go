package main

import "github.com/frahmantamala/visitor-management/cmd"

func main() {
	cmd.Execute()
}
