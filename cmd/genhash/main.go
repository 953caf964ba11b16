// Command genhash prints a bcrypt hash for seeding user passwords and the
// "Tutup Shift" / "Tutup Harian" authorization rows.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	secret := strings.TrimSpace(flag.Arg(0))
	if secret == "" {
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		secret = strings.TrimSpace(line)
	}
	if secret == "" {
		fmt.Fprintln(os.Stderr, "usage: genhash [-cost N] <secret>  (or pipe the secret on stdin)")
		os.Exit(2)
	}

	h, err := bcrypt.GenerateFromPassword([]byte(secret), *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "genhash: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(h))
}
