package main

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

func isPiped() bool {
	stat, _ := os.Stdin.Stat()
	return stat.Mode()&os.ModeCharDevice == 0
}

// argsOrStdin joins the arguments, or reads all of stdin when there are none
// and it is piped.
func argsOrStdin(c *cli.Context, stdin io.Reader) (s string, err error) {
	if c.Args().Len() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	if stdin == os.Stdin && !isPiped() {
		return "", nil
	}
	var b []byte
	if b, err = io.ReadAll(stdin); chk.E(err) {
		return
	}
	return strings.TrimRight(string(b), "\n"), nil
}

// firstArgOrStdinLines yields the first argument, or each non-empty line of
// piped stdin.
func firstArgOrStdinLines(c *cli.Context, stdin io.Reader) (lines []string) {
	if target := c.Args().First(); target != "" {
		return []string{target}
	}
	if stdin == os.Stdin && !isPiped() {
		return
	}
	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 16*1024), 256*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return
}
