// Package presentation holds the slide deck and the viewer state machine
// behind the presentation page, including the autoplay timer.
package presentation
