package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const safetyConfirmationThreshold = 10

// requireSafetyConfirmation prompts before a plan touching more than
// safetyConfirmationThreshold pages or containing any deletion runs,
// unless --yes was given. --non-interactive turns a would-be prompt into
// a hard failure instead of blocking on stdin.
func requireSafetyConfirmation(in io.Reader, out io.Writer, action string, changedCount int, hasDeletes bool) error {
	if changedCount <= safetyConfirmationThreshold && !hasDeletes {
		return nil
	}

	reasonParts := make([]string, 0, 2)
	if changedCount > safetyConfirmationThreshold {
		reasonParts = append(reasonParts, fmt.Sprintf("%d pages", changedCount))
	}
	if hasDeletes {
		reasonParts = append(reasonParts, "deletions")
	}
	reason := strings.Join(reasonParts, " and ")

	if flagYes {
		return nil
	}
	if flagNonInteractive {
		return fmt.Errorf("%s requires confirmation (%s); rerun with --yes", action, reason)
	}

	deleteNote := ""
	if hasDeletes {
		deleteNote = " and includes delete operations"
	}
	fmt.Fprintf(out, "%s will affect %d page(s)%s. Continue? [y/N]: ", action, changedCount, deleteNote)
	choice, err := readPromptLine(in)
	if err != nil {
		return err
	}
	choice = strings.ToLower(strings.TrimSpace(choice))
	if choice != "y" && choice != "yes" {
		return fmt.Errorf("%s cancelled", action)
	}
	return nil
}

func readPromptLine(in io.Reader) (string, error) {
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
