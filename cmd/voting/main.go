// Command voting runs the voting API.
//
// @title                       Voting API
// @version                     1.0
// @description                 Session-authenticated voting: local and OAuth login, one vote per user, admin management.
// @BasePath                    /api
// @securityDefinitions.apikey  SessionCookie
// @in                          cookie
// @name                        vote.sid
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ballotbox/voting-api/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
