package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// PromptCredentials asks for whichever of email and password is still empty.
func PromptCredentials(title string, email, password *string) error {
	var fields []huh.Field
	if *email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Placeholder("a@b.com").
			Value(email).
			Validate(required("email")))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password).
			Validate(required("password")))
	}
	if len(fields) == 0 {
		return nil
	}

	fmt.Println(titleStyle.Render(title))
	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeCatppuccin()).Run()
}

// Confirm asks a yes/no question, defaulting to no.
func Confirm(question string) (bool, error) {
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(question).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	)).WithTheme(huh.ThemeCatppuccin()).Run()
	return ok, err
}
