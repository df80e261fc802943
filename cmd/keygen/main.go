// AngelaMos | 2026
// main.go

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/civix-app/civix-backend/internal/auth"
)

func main() {
	privatePath := flag.String(
		"private",
		"keys/private.pem",
		"output path for the private key",
	)
	publicPath := flag.String(
		"public",
		"keys/public.pem",
		"output path for the public key",
	)
	flag.Parse()

	if err := auth.GenerateKeyPair(*privatePath, *publicPath); err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}

	fmt.Println("wrote", *privatePath, "and", *publicPath)
}
