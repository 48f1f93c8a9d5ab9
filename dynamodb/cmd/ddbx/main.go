// ddbx explores DynamoDB records through a catalog of environments, tables
// and indexes.
//
// # Commands
//
//	ddbx serve    Start the web explorer
//	ddbx tui      Start the terminal explorer
//	ddbx query    Run one query and print the results
//	ddbx whoami   Show the AWS identity in use
//	ddbx version  Print the version
//
// # Configuration
//
// Settings are read from the nearest ddbx.yaml walking up from the current
// directory, then AWS_PROFILE, AWS_REGION and PORT, then flags:
//
//	port: 8080
//	backend: local          # or aws
//	dataDir: ./.ddbx-data   # local backend only; omit for in-memory
//	catalog: ./catalog.yaml # omit for the built-in onboarding catalog
//	seed: ./seed.json       # local backend only
package main

import (
	"fmt"
	"os"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/logger"
)

func main() {
	exitCode := 0
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ddbx: %v\n", err)
		exitCode = 1
	}

	logger.Sync()
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
