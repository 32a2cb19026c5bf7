// Package main é o ponto de entrada do bot de ofertas.
package main

import (
	"os"

	"bot-ofertas/cmd/bot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
