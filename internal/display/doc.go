// Package display puts toast notifications on screen.
// Each backend implements Display; Manager fans a notification out to
// every configured backend and plays the toast sound.
package display
