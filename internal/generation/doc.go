// Package generation turns input images into short video clips through a
// remote image-to-video provider.
//
// Pool runs one Unit per asset with bounded concurrency. Each unit retries a
// fixed number of times and rotates the shared credential ring after every
// failed attempt. Outputs are addressed by asset index, so clip placement does
// not depend on completion order. Providers implement Generator: VeoGenerator
// talks to Google Veo through the genai SDK and DeevidGenerator drives the
// Deevid web API.
package generation
