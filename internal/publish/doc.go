// SPDX-License-Identifier: MPL-2.0

// Package publish holds the publish-framework contracts: instances, the
// per-pass context handed to every plug-in, plug-in interfaces and the
// runner that evaluates them in order.
//
// A pass is single-threaded. Plug-ins run one after another in order value,
// and instance plug-ins visit instances one at a time. Anything a plug-in
// memoizes goes into the Pass cache, which lives exactly as long as the pass.
package publish
