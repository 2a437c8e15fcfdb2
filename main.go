package main

import "github.com/KaramelBytes/queryloom/cmd"

func main() {
	cmd.Execute()
}
