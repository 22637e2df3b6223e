// Package game joins the draw scheduler and the announcer into one session
// that the desktop board and the browser board drive.
package game
