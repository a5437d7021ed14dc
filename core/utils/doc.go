// Package utils provides the case-insensitive name helpers shared by the mod,
// key and remote listing code. Mod tokens and key file names are compared
// without regard to case everywhere in keymaster.
package utils
