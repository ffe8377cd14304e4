package main

import "pdf2img/cmd"

func main() {
	cmd.Execute()
}
