package main

import "github.com/sawantshivaji1997/notionsync/cmd"

func main() {
	cmd.Execute()
}
