package main

import "github.com/maxvaer/picknfetch/cmd"

func main() {
	cmd.Execute()
}
