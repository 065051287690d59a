// Package devicetest provides a simulated output device for testing the
// playout scheduler without hardware.
//
// The Device records every configuration and schedule call it receives and
// lets tests drive the device-side callbacks explicitly: CompleteNextFrame
// simulates a video frame finishing on the device, RenderAudio simulates
// the device pulling audio samples, and NotifyPlaybackStopped simulates an
// external playback stop. Failure injection covers enable calls, schedule
// rejections and callback-boundary panics.
package devicetest
