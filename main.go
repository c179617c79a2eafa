package main

import "github.com/securenet/dyngroups/cmd"

func main() {
	cmd.Execute()
}
