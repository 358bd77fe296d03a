// cmd/geneannot/main.go
package main

import (
	"geneannot/internal/app"
	"geneannot/internal/appshell"
)

func main() { appshell.Main(app.RunContext) }
