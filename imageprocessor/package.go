// Package imageprocessor adapts OpenCV (through gocv) to the feature extraction
// and descriptor matching contracts in package types. Every image is decoded to
// grayscale and normalized to one canonical size before keypoints are detected.
package imageprocessor
