package main

import "github.com/ValentinKolb/dHangman/cmd"

func main() {
	cmd.Execute()
}
