package main

import (
	"fmt"
	"os"

	"github.com/teccampos/incubadora/internal/auth"
	"github.com/teccampos/incubadora/internal/util"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpass <password> [email]")
		os.Exit(1)
	}

	email := ""
	if len(os.Args) > 2 {
		email = util.NormalizeEmail(os.Args[2])
	}
	if err := util.ValidatePassword(os.Args[1], email); err != nil {
		fmt.Fprintf(os.Stderr, "senha fraca: %v\n", err)
		os.Exit(1)
	}

	hash, err := auth.Hash(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
