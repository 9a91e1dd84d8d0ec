// Package main provides the makemore CLI.
package main

func main() {
	Execute()
}
