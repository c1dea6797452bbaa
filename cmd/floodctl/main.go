// Command floodctl is the operator CLI for the flood prediction API.
//
// Usage:
//
//	floodctl token --subject <user-id>   print a signed bearer token
//	floodctl migrate                     create or update the database schema
//
// Both commands read the same environment (and .env file) as the API.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
