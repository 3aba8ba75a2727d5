// Package config loads, normalizes, and validates subseek configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENSUBTITLES_API_KEY. Variables may also live in a `.env` file next to the
// config file or in the working directory; real environment variables win
// over `.env` entries, which win over the TOML file.
//
// Always obtain settings through this package so the resolver, batch runner
// and CLI receive sanitized paths, canonical language codes, and clear
// validation errors.
package config
