// Package io reads linkable graph documents and writes merge results.
//
// # Input Format
//
// A graph document carries one linkable graph per build platform:
//
//	{
//	  "platforms": {
//	    "android-arm64": {
//	      "nodes": [
//	        {"target": "//app:main", "raw_name": "//app:main", "output_name": "libmain.so",
//	         "deps": ["//base:log"]},
//	        {"target": "//base:log", "mergeable": false}
//	      ],
//	      "modules": {"//cam:ui": "camera"}
//	    }
//	  }
//	}
//
// Node order is significant: it is the fixed iteration order every merge
// result depends on. raw_name defaults to the target, output_name to the
// empty string, and mergeable to true. A document without "platforms" but
// with top-level "nodes" is read as a single platform named "default".
//
// # Output Format
//
// [WriteMapping] writes the target → library map per platform, with excluded
// targets mapped to null. [WriteInspection] writes the full [PlatformReport]:
// per-target attributes, libraries with their members and dependencies, and
// split groups. Every set-valued field is a sorted list and every map is
// written with sorted keys, so identical results produce identical bytes.
//
// # Concurrency
//
// Documents and reports are plain values; they are safe to read from several
// goroutines once built.
package io
