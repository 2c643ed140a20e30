package main

import "imagematcher/cmd"

func main() {
	cmd.Execute()
}
