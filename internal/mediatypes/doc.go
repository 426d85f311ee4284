// Package mediatypes classifies media locators by file extension.
//
// It has no dependencies beyond the standard library so any package can
// import it without creating cycles.
//
//	switch mediatypes.Classify("clips/intro.MP4") {
//	case mediatypes.FileTypeVideo:
//	    // extract a frame
//	case mediatypes.FileTypeImage:
//	    // decode directly
//	}
//
// Classify also accepts URLs; their query string is ignored, so
// "https://cdn.example.com/v.m3u8?token=x" is a video.
package mediatypes
