// Package services hosts the shared error taxonomy and context plumbing for
// relcut's external collaborators (GitHub, the package build tools, Discord).
// Subpackages wrap individual services; this package keeps the failure
// classification and context annotation helpers they all share.
package services
