// Package caller implements the draw scheduler: a timer-driven state machine
// that walks a shuffled order of bingo numbers with a countdown before the
// first draw, pause/resume, manual steps and reset. It owns every timer it
// arms and publishes its state to listeners in the order changes happen.
package caller
