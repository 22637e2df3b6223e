// Package processor contains the top level wiring of bingobg. It builds the
// caller and the announcer from the configuration and runs the desktop
// board, the browser board, clip generation or the model listing. This
// package serves as the main coordinator between all other components.
package processor
