// Command hashpassword prints a bcrypt hash for ADMIN_PASSWORD_HASH.
// Пароль читается из первой строки stdin, чтобы не попадать в историю shell.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Dosada05/fjj-brasileirao/utils"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		logger.Error("failed to read password from stdin", slog.Any("error", err))
		os.Exit(1)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		logger.Error("password must not be empty")
		os.Exit(1)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Println(hash)
}
