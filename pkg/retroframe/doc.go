// Package retroframe sends animations to a RetroFrame display device.
//
// A transmission is three strictly sequential steps:
//
//  1. Clear: remove every frame buffer stored on the device.
//  2. Upload: encode each frame and upload it, one at a time, in animation
//     order. The device plays buffers back in arrival order.
//  3. Show: start playback with a per-frame delay.
//
// Any failure aborts the remaining steps and is reported as a
// *TransmissionError naming the failed step (and frame, for uploads). No
// retries are performed; a caller may simply call Transmit again.
//
// A failed show leaves the uploaded buffers on the device. The protocol has no
// rollback, so the device state is indeterminate until the next successful
// transmission.
//
// # Concurrency
//
// A Transmitter holds only configuration and may be reused and shared.
// Transmissions to the same device must not overlap: the device's buffer list
// is shared state that this package does not lock.
package retroframe
