package main

import "github.com/saadjs/tdee-cli/cmd/tdee"

func main() {
	tdee.Execute()
}
