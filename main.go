package main

import "github.com/gizmo-platform/dstation/internal/cmdlets"

func main() {
	cmdlets.Entrypoint()
}
