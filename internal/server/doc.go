// Package server serves the bingo board to browsers. The page is embedded
// in the binary; it receives the game state over a websocket and sends the
// player's intents back. Numbers are announced on the host.
package server
