package main

import "github.com/oshokin/ota-manifest/cmd/ota-manifest/cmd"

func main() {
	cmd.Execute()
}
