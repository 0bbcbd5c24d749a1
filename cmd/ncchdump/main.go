package main

import "github.com/ctrtools/ncchdump/internal/cmd"

func main() {
	cmd.Execute()
}
