package main

import "github.com/felo/eml-vectorizer/cmd"

func main() {
	cmd.Execute()
}
