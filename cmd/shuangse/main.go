package main

import "github.com/ymkfssy/shuangse-sub001/cmd"

func main() {
	cmd.Execute()
}
