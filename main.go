package main

import "asset-exporter/cmd"

func main() {
	cmd.Execute()
}
