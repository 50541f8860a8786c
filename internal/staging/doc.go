// SPDX-License-Identifier: MPL-2.0

// Package staging models the remote artifact staging repository used for public
// releases and the lifecycle it goes through:
//
//	absent --Open(public)--> open --Close--> closed --Release--> released
//
// Non-public iterations never create a repository: Open returns Empty and the
// lifecycle stays absent. Close and Release on an absent lifecycle are no-ops, so
// release pipelines can call them unconditionally. Any other out-of-order call is
// rejected with an InvalidTransitionError and never reaches the remote service.
package staging
