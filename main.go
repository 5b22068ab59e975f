// Copyright © 2024 The nxt authors

package main

import "github.com/luthersystems/nxt/cmd"

func main() {
	cmd.Execute()
}
