package numbers

import (
	"errors"
	"fmt"
)

// Max is the highest number in the game
const Max = 90

// ErrOutOfRange is returned for numbers outside 0..Max
var ErrOutOfRange = errors.New("number out of range")

var words = map[int]string{
	0: "нула", 1: "едно", 2: "две", 3: "три", 4: "четири",
	5: "пет", 6: "шест", 7: "седем", 8: "осем", 9: "девет",
	10: "десет", 11: "единадесет", 12: "дванадесет", 13: "тринадесет",
	14: "четиринадесет", 15: "петнадесет", 16: "шестнадесет",
	17: "седемнадесет", 18: "осемнадесет", 19: "деветнадесет",
	20: "двадесет", 30: "тридесет", 40: "четиридесет", 50: "петдесет",
	60: "шестдесет", 70: "седемдесет", 80: "осемдесет", 90: "деветдесет",
}

// Lookup returns the Bulgarian phrase for n
func Lookup(n int) (string, error) {
	if n < 0 || n > Max {
		return "", fmt.Errorf("%w: %d", ErrOutOfRange, n)
	}

	if n <= 20 || n%10 == 0 {
		return words[n], nil
	}

	tens := (n / 10) * 10
	ones := n % 10
	return fmt.Sprintf("%s и %s", words[tens], words[ones]), nil
}

// ToBulgarian returns the Bulgarian phrase for n. It panics when n is
// outside 0..Max; use Lookup for numbers that come from user input.
func ToBulgarian(n int) string {
	phrase, err := Lookup(n)
	if err != nil {
		panic(err)
	}
	return phrase
}

// Overrides replaces the phrase of individual numbers, e.g. the colloquial
// "шейсет" instead of "шестдесет"
type Overrides map[int]string

// Phrase returns the override for n if there is one, the standard phrase
// otherwise
func (o Overrides) Phrase(n int) string {
	if phrase, ok := o[n]; ok && phrase != "" {
		return phrase
	}
	return ToBulgarian(n)
}
