// Package config loads application settings from an optional config file,
// SHEET_-prefixed environment variables and built-in defaults, in that
// order of precedence from lowest to highest: defaults, file, environment.
package config
