package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/securetee/xtest/framework"
	"github.com/securetee/xtest/servicedef"
	"github.com/securetee/xtest/teec"
	"github.com/securetee/xtest/xtest"

	"github.com/fatih/color"
)

const statusQueryTimeout = time.Second * 10

func main() {
	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}
	if params.noColor {
		color.NoColor = true
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	client := teec.NewClient(params.serviceURL, mainDebugLogger)
	status, err := client.QueryStatus(statusQueryTimeout, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client service error: %s\n", err)
		os.Exit(1)
	}

	fmt.Println()
	printFilterDescription(params.filters, status)

	fmt.Println("Running test suite")

	testLogger := &ConsoleTestLogger{
		Output:               os.Stdout,
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	results := xtest.RunTestSuite(client, status, params.filters.AsFilter, testLogger)

	fmt.Println()
	PrintResults(os.Stdout, results)

	if params.stopServiceAtEnd {
		fmt.Println("Stopping client service")
		if err := client.StopService(); err != nil {
			fmt.Fprintf(os.Stderr, "Error when stopping client service: %s\n", err)
		}
	}

	if !results.OK() {
		fmt.Println()
		fmt.Println("To run the same tests again:")
		fmt.Printf("  %s\n", params.commandLine(os.Args[0]))
		os.Exit(1)
	}
}

func printFilterDescription(filters framework.RegexFilters, status servicedef.StatusRep) {
	if filters.MustMatch.IsDefined() || filters.MustNotMatch.IsDefined() {
		fmt.Println("Some tests will be skipped based on the filter criteria for this test run:")
		if filters.MustMatch.IsDefined() {
			fmt.Printf("  skip any not matching %s\n", filters.MustMatch)
		}
		if filters.MustNotMatch.IsDefined() {
			fmt.Printf("  skip any matching %s\n", filters.MustNotMatch)
		}
		fmt.Println()
	}

	var missing []string
	for _, c := range servicedef.AllCapabilities {
		if !xtest.Capabilities(status.Capabilities).Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		fmt.Println("Some tests may be skipped because the client service does not support the following capabilities:")
		fmt.Printf("  %s\n", strings.Join(missing, ", "))
		fmt.Println()
	}
}
