// Package perception defines the per-frame results consumed from the
// external perception engine: sign classifications, tracked collision
// objects, lane-departure state, speed-limit readings, calibration progress
// and road description.
//
// Every field of a Frame is optional. An absent field means "no update for
// this aspect this frame" and is never an error.
//
// Frames reach the engine as JSON lines over a framemux transport; Decode
// parses one line and LineSource adapts a transport subscription into a
// frame channel.
package perception
