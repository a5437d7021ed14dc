// Package keys computes the key files a server must hold.
//
// Resolution starts from the mods of the client export plus the manually
// forced mods, maps each mod to its key files through a Resolver, then adds
// the manual keys and removes the blacklisted ones. Two resolvers exist:
//
//   - MappingResolver looks mods up in the mapping document. Any mod without
//     an entry aborts resolution before the remote store is touched.
//   - ProbeResolver lists each mod's key directory on the remote store. When
//     two mods ship a key of the same name the first mod in order keeps it.
//
// Key names are compared case-insensitively throughout. The resolved keys are
// staged locally through a KeySource before upload.
package keys
