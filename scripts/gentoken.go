// One-off: SECRET_KEY=... go run scripts/gentoken.go <user-id> <username>
package main

import (
	"fmt"
	"os"
	"strconv"

	"tasklist/internal/auth"
)

func main() {
	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "SECRET_KEY is required")
		os.Exit(1)
	}
	userID := int64(1)
	username := "dev"
	if len(os.Args) > 1 {
		id, err := strconv.ParseInt(os.Args[1], 10, 64)
		if err != nil {
			fmt.Fprintln(os.Stderr, "user id must be a number")
			os.Exit(1)
		}
		userID = id
	}
	if len(os.Args) > 2 {
		username = os.Args[2]
	}
	token, err := auth.NewTokenIssuer([]byte(secret), 0).Issue(userID, username)
	if err != nil {
		panic(err)
	}
	fmt.Print(token)
}
