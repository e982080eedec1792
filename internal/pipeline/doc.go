// Package pipeline runs the stages of a probe in sequence.
//
// A probe goes through the handshake, fingerprinting, analysis and history
// stages. Each stage is implemented as a Step that receives the current
// report and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context between steps
//
// Multiple targets are processed one after another by BatchProcessor.
package pipeline
