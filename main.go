package main

import "catalog-harvester/cmd"

func main() {
	cmd.Execute()
}
