// Command devtoken prints an access token for local calls to the ticket API.
//
//	devtoken -sub org-1 -role ORGANIZER
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/ticket-lifecycle/internal/utils"
)

func main() {
	_ = godotenv.Load()
	sub := flag.String("sub", "dev-user", "subject (user id)")
	role := flag.String("role", "ORGANIZER", "role claim: ORGANIZER, STAFF or CUSTOMER")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	tok, err := utils.NewAccessToken(secret, *sub, *role, *ttl, time.Now())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(tok.Token)
}
