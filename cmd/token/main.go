package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"bookloan/internal/auth"

	"github.com/joho/godotenv"
)

func main() {
	var (
		sub  = flag.String("sub", "", "Staff id placed in the token subject")
		role = flag.String("role", auth.RoleLibrarian, "Role claim")
		ttl  = flag.Duration("ttl", 8*time.Hour, "Token lifetime")
	)
	flag.Parse()

	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	if *sub == "" {
		log.Fatal("-sub is required")
	}

	token, jti, err := auth.GenerateToken(os.Getenv("STAFF_JWT_SECRET"), *sub, *role, *ttl)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}
	fmt.Fprintf(os.Stderr, "jti=%s expires=%s\n", jti, time.Now().Add(*ttl).Format(time.RFC3339))
	fmt.Println(token)
}
