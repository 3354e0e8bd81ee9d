// Command hashsecret prints the bcrypt hash to put in MENTORDESK_ADMIN_SECRET_HASH
// or MENTORDESK_CRON_SECRET_HASH.
//
//	go run ./cmd/hashsecret            # reads the secret from stdin
//	go run ./cmd/hashsecret -generate  # creates a random secret and prints both
package main

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"mentordesk/internal/adapters/http/middleware"
)

func main() {
	generate := flag.Bool("generate", false, "generate a random secret instead of reading one")
	flag.Parse()

	var secret string
	if *generate {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			log.Fatalf("generate secret: %v", err)
		}
		secret = base64.RawURLEncoding.EncodeToString(b)
		fmt.Println("secret:", secret)
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("read secret: %v", err)
		}
		secret = strings.TrimSpace(line)
	}
	if secret == "" {
		log.Fatal("secret is empty")
	}

	hash, err := middleware.HashSecret(secret)
	if err != nil {
		log.Fatalf("hash secret: %v", err)
	}
	fmt.Println("hash:  ", hash)
}
