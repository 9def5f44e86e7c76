// Package main is the ShieldHer operator tool: it seeds admin accounts,
// hashes and verifies passwords, generates field encryption keys and runs
// database migrations.
//
//	admintool gen-key
//	admintool hash-password 'Correct-Horse-9'
//	admintool create-admin --username alice --email alice@example.org --role admin
//	admintool migrate up
package main

import (
	"log"
	"os"
)

func main() {
	if err := newRootCmd(os.Getenv).Execute(); err != nil {
		log.Fatalf("admintool: %v", err)
	}
}
