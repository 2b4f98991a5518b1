package main

import (
	"fmt"
	"log"

	"github.com/aj9599/rental-billing/crypto"
)

func main() {
	fmt.Println("=== Session Encryption Key Generator ===")
	fmt.Println()

	encodedKey, err := crypto.GenerateEncryptionKey()
	if err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}

	fmt.Println("Add this to your .env file:")
	fmt.Printf("SESSION_ENCRYPTION_KEY=%s\n", encodedKey)
	fmt.Println()
	fmt.Println("Backend tokens of signed-in users are encrypted with this key.")
	fmt.Println("Changing it signs everyone out of the console.")
}
