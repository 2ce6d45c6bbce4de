// Package narration drafts the voice-over script for a reel and synthesizes
// one speech clip per script line.
//
// ScriptStage asks a ScriptWriter for a short multi-line script and stores the
// cleaned lines as the task's segments. SpeechStage voices each segment in
// order through a Synthesizer. Both stages replace their previous outputs
// wholesale so they can be re-run after a failure.
package narration
