package main

import "github.com/masmgr/vcsview-go/cmd"

func main() {
	cmd.Run()
}
