// Package setup prompts the operator for the first baseline balance.
package setup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)
)

// ErrAborted operator declined to record the baseline.
var ErrAborted = errors.New("baseline entry aborted")

// Baseline operator-entered initial balance.
type Baseline struct {
	AmountMinorUnits int64
	Currency         string
}

// PromptBaseline asks for the initial balance in minor units (cents) and its currency.
func PromptBaseline(defaultCurrency string) (Baseline, error) {
	var (
		amountStr string
		currency  = defaultCurrency
		confirm   bool
	)

	fmt.Println(headerStyle.Render("PROFITWATCH"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("No baseline balance recorded yet.\n"))

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Initial balance (cents)").
				Description("Whole minor units, e.g. 10000 for 100.00").
				Value(&amountStr).
				Validate(validateAmount),
			huh.NewInput().
				Title("Currency").
				Value(&currency).
				Validate(validateCurrency),
			huh.NewConfirm().
				Title("Record this baseline?").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return Baseline{}, errors.Wrap(err, "baseline form")
	}
	if !confirm {
		return Baseline{}, ErrAborted
	}

	return parseBaseline(amountStr, currency)
}

func parseBaseline(amountStr, currency string) (Baseline, error) {
	if err := validateAmount(amountStr); err != nil {
		return Baseline{}, err
	}
	if err := validateCurrency(currency); err != nil {
		return Baseline{}, err
	}
	amount, _ := strconv.ParseInt(strings.TrimSpace(amountStr), 10, 64)
	return Baseline{AmountMinorUnits: amount, Currency: strings.ToUpper(strings.TrimSpace(currency))}, nil
}

func validateAmount(s string) error {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("must be a whole number of cents")
	}
	if v < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func validateCurrency(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("currency cannot be empty")
	}
	return nil
}
