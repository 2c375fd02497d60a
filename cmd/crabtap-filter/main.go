package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Houndie/crabtap/internal/tags"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "crabtap-filter [files...]",
	Short: "Print the audio files that lack a BPM tag",
	Long: `crabtap-filter reads candidate paths from its arguments, or newline
delimited on standard input when no arguments are given, and prints only
the ones without an existing BPM tag. Unreadable files are reported on
standard error and left out of the result.

Pipe the output into crabtap to tag what remains:

  crabtap-filter *.mp3 *.flac | xargs crabtap --inplace`,
	Version: Version,
	Args:    cobra.ArbitraryArgs,
	Run:     runFilter,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runFilter(cmd *cobra.Command, args []string) {
	logrus.SetOutput(io.Discard)

	candidates := args
	if len(candidates) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				candidates = append(candidates, line)
			}
		}
		if err := scanner.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "reading stdin: %v\n", err)
			os.Exit(1)
		}
	}

	for _, path := range candidates {
		bpm, err := tags.ReadBPM(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", path, err)
			continue
		}
		if bpm == 0 {
			fmt.Println(path)
		}
	}
}
