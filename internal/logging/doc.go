// Package logging provides leveled logging on top of the standard library
// log package.
//
// The level is read once from the environment: DEBUG=1 (or true/yes/on)
// enables debug logging, otherwise LOG_LEVEL selects one of debug, info,
// warn, or error. The default is info.
//
// Progress output is not logging and does not go through this package; see
// the progress package.
package logging
