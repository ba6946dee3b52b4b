package main

import "rsbuild/internal/rsbuild"

func main() {
	rsbuild.Main()
}
