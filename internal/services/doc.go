// Package services defines the error taxonomy and context helpers shared by
// the rcjk core packages.
//
// Key responsibilities:
//   - Sentinel markers plus typed errors (ParseError, ValidationError,
//     DuplicateNameError, AlreadyLockedError, NotLockedByUserError) that callers
//     can distinguish with errors.Is / errors.As or through Kind.
//   - The Wrap helper that tags collaborator failures (git, filesystem) with a
//     marker and a component/operation prefix.
//   - Context helpers that stamp export run IDs, project slugs, and font names
//     for logging.
package services
