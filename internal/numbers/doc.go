// Package numbers turns bingo numbers into spoken Bulgarian phrases.
package numbers
