package main

import "github.com/mkendall/affine/cmd"

func main() {
	cmd.Execute()
}
