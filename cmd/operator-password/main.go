// operator-password prints a bcrypt hash for OPERATOR_PASSWORD_HASH.
//
// Usage:
//
//	go run ./cmd/operator-password -password 'S3cret!'
//
// Without -password the value is read from OPERATOR_PASSWORD.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/storefront_backend/utils"
)

const minPasswordLength = 8

func main() {
	password := flag.String("password", os.Getenv("OPERATOR_PASSWORD"), "Plain operator password")
	flag.Parse()

	if len(strings.TrimSpace(*password)) < minPasswordLength {
		fmt.Fprintf(os.Stderr, "password must be at least %d characters\n", minPasswordLength)
		os.Exit(1)
	}

	hashed, err := utils.HashPassword(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	if err := utils.ComparePassword(string(hashed), *password); err != nil {
		fmt.Fprintf(os.Stderr, "hash verification failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OPERATOR_PASSWORD_HASH=%s\n", hashed)
}
