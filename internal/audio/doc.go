// Package audio plays the toast sound.
// It uses the beep library to play WAV, OGG, and MP3 audio files
// with volume control.
package audio
