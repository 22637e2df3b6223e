// Package draw produces the randomized order in which bingo numbers are
// called.
package draw
