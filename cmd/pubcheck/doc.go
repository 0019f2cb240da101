// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the pubcheck CLI.
//
// Every command works on a workfile: a CUE document describing a scene, the
// publish instances authored in it and the containers loaded into it.
// Commands load the configuration, build a publish pass over the in-memory
// scene and hand it to the plug-in runner; results are printed in the
// configured report format.
package cmd
