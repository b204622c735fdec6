// Package input requests input from the user.
package input

import (
	"context"
	"fmt"
	"strings"

	"github.com/lefinal/meh"
	"github.com/manifoldco/promptui"
)

// Stdin prompts via the terminal.
type Stdin struct {
}

// RequestConfirm prompts the user with the given one for confirmation. If no
// input was provided, the given default value will be returned.
func (input *Stdin) RequestConfirm(ctx context.Context, prompt string, defaultValue bool) (bool, error) {
	defaultValueStr := "n"
	if defaultValue {
		defaultValueStr = "y"
	}

	for {
		myPrompt := promptui.Prompt{
			Label:     prompt,
			Default:   defaultValueStr,
			IsConfirm: true,
		}
		resultStr, err := myPrompt.Run()
		if err == nil || err.Error() == "" {
			// OK.
			switch strings.ToLower(resultStr) {
			case "y":
				return true, nil
			case "n":
				return false, nil
			case "":
				return defaultValue, nil
			}
		}
		// Error or invalid value.
		if shouldAbortPrompt(ctx, err) {
			return false, meh.NewBadInputErr("canceled", nil)
		}
		fmt.Println(createErrorMessage("invalid value entered", err, resultStr))
	}
}

func shouldAbortPrompt(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if err != nil && (err.Error() == "^C" || err.Error() == "^D") {
		return true
	}
	return false
}

func createErrorMessage(message string, err error, value string) string {
	errDescription := message
	if err != nil && err.Error() != "" {
		errDescription += fmt.Sprintf(" (%s)", err.Error())
	}
	if value != "" {
		errDescription += fmt.Sprintf(": %s", value)
	}
	return errDescription
}
