// Package handlers provides HTTP request handlers for the thumbnail server.
//
// It includes handlers for:
//   - Thumbnail resolution for image URLs and videos
//   - Health, liveness and readiness probes
//   - Version information
package handlers
