package main

import (
	"errors"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("viewkit: prompt aborted")

// prompter asks for values when viewkit runs with -i.
type prompter interface {
	Select(message string, options []string) (string, error)
	Input(message, help string) (string, error)
}

type surveyPrompter struct{}

// terminalPrompter returns a survey backed prompter, or nil when stdin is not
// a terminal.
func terminalPrompter() prompter {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return nil
	}
	return surveyPrompter{}
}

func (surveyPrompter) Select(message string, options []string) (string, error) {
	var out string
	prompt := &survey.Select{
		Message:  message,
		Options:  options,
		PageSize: 15,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Input(message, help string) (string, error) {
	var out string
	prompt := &survey.Input{
		Message: message,
		Help:    help,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func chooseView(p prompter, names []string) (string, error) {
	if len(names) == 0 {
		return "", errors.New("viewkit: no views found")
	}
	return p.Select("View", names)
}

// promptVars reads key=value pairs into data until an empty answer.
func promptVars(p prompter, data map[string]any) error {
	for {
		raw, err := p.Input("Variable", "key=value, leave empty to render")
		if err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		if err := setFlags(data).Set(raw); err != nil {
			return err
		}
	}
}
